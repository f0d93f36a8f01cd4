package logger

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	logFileExt     = ".log"
	fileTimeLayout = "2006-01-02 15:04:05"
)

// currentFilePath returns the rotated file drains append to. The first drain
// names a file from the current UTC time; later drains keep it until its
// size passes SingleSize, then rotate to a new timestamped name. Rotations
// inside one second get a numeric suffix so names stay unique. Runs on the
// drain runner only.
func (s *StagingSink) currentFilePath() string {
	if s.logPath == "" {
		s.logPath = s.datedFilePath() + logFileExt
		return s.logPath
	}

	if fileSize(s.logPath) <= s.conf.SingleSize {
		return s.logPath
	}

	base := s.datedFilePath()
	path := base + logFileExt
	if _, err := os.Stat(path); err == nil {
		// Timestamp collision: suffix with the count of files already
		// carrying this timestamp.
		index := 0
		entries, _ := os.ReadDir(s.conf.Dir)
		for _, e := range entries {
			if strings.HasPrefix(filepath.Join(s.conf.Dir, e.Name()), base) {
				index++
			}
		}
		path = base + "_" + strconv.Itoa(index) + logFileExt
	}
	s.logPath = path
	return s.logPath
}

func (s *StagingSink) datedFilePath() string {
	stamp := time.Now().UTC().Format(fileTimeLayout)
	return filepath.Join(s.conf.Dir, s.conf.Prefix+"_"+stamp)
}

// removeOldFiles walks the rotated files newest-first and deletes everything
// past the TotalSize budget. The file currently written to is never removed.
// Runs on the drain runner, so it cannot race a drain.
func (s *StagingSink) removeOldFiles() {
	entries, err := os.ReadDir(s.conf.Dir)
	if err != nil {
		log.Printf("staging sink: retention: read dir %s: %v", s.conf.Dir, err)
		return
	}

	type logFile struct {
		path    string
		size    int64
		modTime time.Time
	}
	var files []logFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != logFileExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{
			path:    filepath.Join(s.conf.Dir, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	var used int64
	for _, f := range files {
		used += f.size
		if used <= s.conf.TotalSize {
			continue
		}
		if f.path == s.logPath {
			continue
		}
		if err := os.Remove(f.path); err != nil {
			log.Printf("staging sink: retention: remove %s: %v", f.path, err)
		} else {
			log.Printf("staging sink: retention: removed %s", f.path)
		}
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
