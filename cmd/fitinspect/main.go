package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/lucasjlepore/fit-recalc/export"
)

func main() {
	jsonOut := flag.Bool("json", false, "Emit inspection result as JSON")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-fit-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect failed: %v\n", err)
		os.Exit(1)
	}
	info, err := export.Inspect(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(info); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("File:       %s (%d bytes)\n", flag.Arg(0), info.SizeBytes)
	fmt.Printf("SHA-256:    %s\n", info.SHA256)
	fmt.Printf("Header:     %s, %d bytes, protocol %d, profile %d, data %d bytes\n",
		info.Header.DataType, info.Header.Size, info.Header.ProtocolVersion, info.Header.ProfileVersion, info.Header.DataSize)
	fmt.Printf("CRC valid:  header=%t file=%t\n", info.HeaderCRC.Valid, info.FileCRC.Valid)
	if info.FileID != nil {
		fmt.Printf("File ID:    type=%s manufacturer=%s product=%s serial=%d\n",
			info.FileID.Type, info.FileID.Manufacturer, info.FileID.Product, info.FileID.SerialNumber)
	}
	for _, w := range export.Warnings(info) {
		fmt.Printf("Warning:    %s\n", w)
	}
}
