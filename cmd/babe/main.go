// Command babe decodes a pixel-bean container file and renders it as an
// animated WebP or GIF, mirroring the teacher's encode/decode CLI shape
// (main.go at the module root) with the direction of travel reversed: this
// exercise decodes the bean container and re-encodes it to a standard
// animated image format instead of the other way around.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pixelbean-go/pixelbean"
	"github.com/pixelbean-go/pixelbean/encoder/gif"
	"github.com/pixelbean-go/pixelbean/encoder/webp"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprint(os.Stderr, "Usage: babe <input.bean> [webp|gif]\n")
		os.Exit(1)
	}

	inputPath := os.Args[1]
	format := "webp"
	if len(os.Args) == 3 {
		format = strings.ToLower(os.Args[2])
	}
	if format != "webp" && format != "gif" {
		fmt.Fprintln(os.Stderr, "format must be webp or gif")
		os.Exit(1)
	}

	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	outPath := base + "." + format

	if err := decodeToFile(inputPath, outPath, format); err != nil {
		fmt.Fprintln(os.Stderr, "decode error:", err)
		os.Exit(1)
	}
	fmt.Printf("Decoded %s → %s\n", inputPath, outPath)
}

func decodeToFile(inPath, outPath, format string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	payload, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	bean, err := pixelbean.Decode(payload)
	if err != nil {
		return err
	}

	var out []byte
	switch format {
	case "webp":
		out, err = webp.Encode(bean)
	case "gif":
		out, err = gif.Encode(bean)
	}
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(out); err != nil {
		return err
	}
	fmt.Printf("%d frames, %dx%d, %dms/frame\n", bean.TotalFrames(), bean.Width(), bean.Height(), bean.SpeedMS())
	return nil
}
