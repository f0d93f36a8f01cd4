// Package record serializes log events into the binary record format staged
// by the sink. Records are protobuf wire format (tag-length-value) encoded
// with protowire; the field numbers below are the external contract and the
// offline decoder must use the same table.
package record

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the serialized record. Varint fields carry the numeric
// event data, bytes fields the strings and the opaque message payload.
const (
	fieldLevel     = 1 // varint, LogLevel value
	fieldTimestamp = 2 // varint, ms since the Unix epoch (UTC)
	fieldPid       = 3 // varint
	fieldTid       = 4 // varint
	fieldLine      = 5 // varint
	fieldFileName  = 6 // bytes, basename only
	fieldFuncName  = 7 // bytes
	fieldLogInfo   = 8 // bytes, message payload
)

// ErrMalformed is returned by Unmarshal for input that is not a record.
var ErrMalformed = errors.New("record: malformed record")

var pid = int32(os.Getpid())

// Record is one log event in serializable form.
type Record struct {
	Level     int32
	Timestamp int64
	Pid       int32
	Tid       int32
	Line      int32
	FileName  string
	FuncName  string
	Payload   []byte
}

// New stamps a record for an event happening now: timestamp in epoch
// milliseconds, current pid and tid, file name stripped to its basename.
func New(level int32, file string, line int32, fn string, payload []byte) Record {
	return Record{
		Level:     level,
		Timestamp: time.Now().UnixMilli(),
		Pid:       pid,
		Tid:       threadID(),
		Line:      line,
		FileName:  Basename(file),
		FuncName:  fn,
		Payload:   payload,
	}
}

// Basename strips any directory prefix, treating both '/' and '\' as
// separators.
func Basename(file string) string {
	if i := strings.LastIndexAny(file, `/\`); i >= 0 {
		return file[i+1:]
	}
	return file
}

// Marshal appends the wire encoding of r to dst and returns the result.
func (r Record) Marshal(dst []byte) []byte {
	dst = protowire.AppendTag(dst, fieldLevel, protowire.VarintType)
	dst = protowire.AppendVarint(dst, uint64(r.Level))
	dst = protowire.AppendTag(dst, fieldTimestamp, protowire.VarintType)
	dst = protowire.AppendVarint(dst, uint64(r.Timestamp))
	dst = protowire.AppendTag(dst, fieldPid, protowire.VarintType)
	dst = protowire.AppendVarint(dst, uint64(r.Pid))
	dst = protowire.AppendTag(dst, fieldTid, protowire.VarintType)
	dst = protowire.AppendVarint(dst, uint64(r.Tid))
	dst = protowire.AppendTag(dst, fieldLine, protowire.VarintType)
	dst = protowire.AppendVarint(dst, uint64(r.Line))
	dst = protowire.AppendTag(dst, fieldFileName, protowire.BytesType)
	dst = protowire.AppendString(dst, r.FileName)
	dst = protowire.AppendTag(dst, fieldFuncName, protowire.BytesType)
	dst = protowire.AppendString(dst, r.FuncName)
	dst = protowire.AppendTag(dst, fieldLogInfo, protowire.BytesType)
	dst = protowire.AppendBytes(dst, r.Payload)
	return dst
}

// Unmarshal decodes one record from src. Unknown fields are skipped so the
// format can grow without breaking old decoders.
func Unmarshal(src []byte) (Record, error) {
	var r Record
	for len(src) > 0 {
		num, typ, n := protowire.ConsumeTag(src)
		if n < 0 {
			return r, fmt.Errorf("%w: tag: %v", ErrMalformed, protowire.ParseError(n))
		}
		src = src[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(src)
			if n < 0 {
				return r, fmt.Errorf("%w: varint field %d", ErrMalformed, num)
			}
			src = src[n:]
			switch num {
			case fieldLevel:
				r.Level = int32(v)
			case fieldTimestamp:
				r.Timestamp = int64(v)
			case fieldPid:
				r.Pid = int32(v)
			case fieldTid:
				r.Tid = int32(v)
			case fieldLine:
				r.Line = int32(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(src)
			if n < 0 {
				return r, fmt.Errorf("%w: bytes field %d", ErrMalformed, num)
			}
			src = src[n:]
			switch num {
			case fieldFileName:
				r.FileName = string(v)
			case fieldFuncName:
				r.FuncName = string(v)
			case fieldLogInfo:
				r.Payload = append([]byte(nil), v...)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, src)
			if n < 0 {
				return r, fmt.Errorf("%w: field %d type %d", ErrMalformed, num, typ)
			}
			src = src[n:]
		}
	}
	return r, nil
}
