// A minimal producer: one encrypted staging sink behind a handle. The peer
// public key would normally come from deployment config; here a throwaway
// pair is generated so the example runs standalone.
package main

import (
	"flag"
	"fmt"
	"log"

	logger "github.com/kangzehao/high-performance-logger"
	"github.com/kangzehao/high-performance-logger/internal/crypt"
)

func main() {
	dir := flag.String("dir", "./logs", "directory for log files")
	flag.Parse()

	priv, pub, err := crypt.GenerateKeyPair()
	if err != nil {
		log.Fatalf("generate server keypair: %v", err)
	}
	fmt.Printf("server private key (keep offline): %s\n", crypt.EncodeHexKey(priv))

	sink, err := logger.NewStagingSink(logger.Config{
		Dir:    *dir,
		Prefix: "example",
		PubKey: crypt.EncodeHexKey(pub),
	})
	if err != nil {
		log.Fatalf("create sink: %v", err)
	}
	defer sink.Close()

	h := logger.NewLogHandle(sink)
	h.SetLevel(logger.LevelDebug)

	for i := 0; i < 100; i++ {
		h.Log(logger.LevelInfo,
			logger.SourceLocation{File: "example/main.go", Line: 42, Func: "main.main"},
			fmt.Sprintf("event %d", i))
	}
	h.Flush()
	fmt.Printf("wrote encrypted log chunks under %s\n", *dir)
}
