// Package ase parses Adobe Swatch Exchange (ASE) files into a [book.Book].
package ase

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/kennyp/swatchmatch/book"
	"github.com/kennyp/swatchmatch/color"
)

const FileType = "ASEF" // Signature for an Adobe Swatch Exchange file.

const (
	blockTypeGroupStart = 0xC001
	blockTypeGroupEnd   = 0xC002
	blockTypeColor      = 0x0001
)

var colorTypeNames = map[uint16]string{
	0: "global",
	1: "spot",
	2: "process",
}

type reader struct {
	r      *bytes.Reader
	source string
}

func (r *reader) offset() int {
	return int(r.r.Size()) - r.r.Len()
}

func (r *reader) fail(context string, err error) error {
	return &book.ParseError{Source: r.source, Offset: r.offset(), Context: context, Err: err}
}

func (r *reader) readBytes(n int, context string) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, r.fail(context, err)
	}
	return buf, nil
}

func (r *reader) readU16(context string) (uint16, error) {
	var v uint16
	if err := binary.Read(r.r, binary.BigEndian, &v); err != nil {
		return 0, r.fail(context, err)
	}
	return v, nil
}

func (r *reader) readU32(context string) (uint32, error) {
	var v uint32
	if err := binary.Read(r.r, binary.BigEndian, &v); err != nil {
		return 0, r.fail(context, err)
	}
	return v, nil
}

func (r *reader) readF32(context string) (float32, error) {
	var v float32
	if err := binary.Read(r.r, binary.BigEndian, &v); err != nil {
		return 0, r.fail(context, err)
	}
	return v, nil
}

func (r *reader) remaining() int {
	return r.r.Len()
}

// readASEString reads an ASE-Pascal string: a u16 char count followed by
// that many UTF-16BE code units, including a trailing NUL that is trimmed.
func readASEString(r *reader, context string) (string, error) {
	length, err := r.readU16(context + " length")
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}

	raw, err := r.readBytes(int(length)*2, context)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	u16s := make([]uint16, 1)
	b8 := make([]byte, 4)
	for i := 0; i+1 < len(raw); i += 2 {
		u16s[0] = uint16(raw[i])<<8 | uint16(raw[i+1])
		decoded := utf16.Decode(u16s)
		n := utf8.EncodeRune(b8, decoded[0])
		out.Write(b8[:n])
	}

	return strings.TrimRight(out.String(), "\x00"), nil
}

// Parse decodes an Adobe Swatch Exchange file's raw bytes into a book.Book.
// source is used only to annotate errors (typically the file path).
func Parse(data []byte, source string) (*book.Book, error) {
	r := &reader{r: bytes.NewReader(data), source: source}

	signature, err := r.readBytes(4, "signature")
	if err != nil {
		return nil, err
	}
	if string(signature) != FileType {
		return nil, r.fail("signature", fmt.Errorf("invalid signature %q, expected %q", signature, FileType))
	}

	major, err := r.readU16("version major")
	if err != nil {
		return nil, err
	}
	minor, err := r.readU16("version minor")
	if err != nil {
		return nil, err
	}
	blockCount, err := r.readU32("block count")
	if err != nil {
		return nil, err
	}

	slog.Debug("ase header", slog.Int("major", int(major)), slog.Int("minor", int(minor)), slog.Int("blocks", int(blockCount)))

	var colors []book.ColorRecord
	modelsSeen := map[string]struct{}{}
	var groupStack []string

	for blockIndex := 0; blockIndex < int(blockCount); blockIndex++ {
		blockType, err := r.readU16(fmt.Sprintf("block %d type", blockIndex))
		if err != nil {
			return nil, err
		}
		blockLength, err := r.readU32(fmt.Sprintf("block %d length", blockIndex))
		if err != nil {
			return nil, err
		}
		payload, err := r.readBytes(int(blockLength), fmt.Sprintf("block %d payload", blockIndex))
		if err != nil {
			return nil, err
		}
		block := &reader{r: bytes.NewReader(payload), source: fmt.Sprintf("%s block %d", source, blockIndex)}

		switch blockType {
		case blockTypeGroupStart:
			groupName, err := readASEString(block, "group name")
			if err != nil {
				return nil, err
			}
			if groupName != "" {
				groupStack = append(groupStack, groupName)
			}
			continue
		case blockTypeGroupEnd:
			if len(groupStack) > 0 {
				groupStack = groupStack[:len(groupStack)-1]
			}
			continue
		}
		if blockType != blockTypeColor {
			continue
		}

		colorName, err := readASEString(block, "color name")
		if err != nil {
			return nil, err
		}
		if colorName == "" {
			continue
		}

		modelRaw, err := block.readBytes(4, "color model")
		if err != nil {
			return nil, err
		}
		modelKey := strings.ToUpper(strings.TrimSpace(string(modelRaw)))
		modelsSeen[modelKey] = struct{}{}

		rgb, err := readModelRGB(block, modelKey, source, blockIndex)
		if err != nil {
			return nil, err
		}

		colorType := uint16(2) // default to process when the trailing type byte is absent
		if block.remaining() >= 2 {
			colorType, err = block.readU16("color type")
			if err != nil {
				return nil, err
			}
		}
		code := formatColorCode(modelKey, colorType)

		displayName := colorName
		if len(groupStack) > 0 {
			displayName = fmt.Sprintf("%s [%s]", colorName, groupStack[len(groupStack)-1])
		}

		slog.Debug("parsed color", slog.Int("block", blockIndex), slog.String("name", displayName), slog.String("model", modelKey))

		colors = append(colors, book.ColorRecord{Name: displayName, Code: code, Hex: color.RGBToHex(rgb)})
	}

	colorspaceName := "Unknown"
	if len(modelsSeen) > 1 {
		colorspaceName = "Mixed"
	} else {
		for m := range modelsSeen {
			colorspaceName = m
		}
	}

	return &book.Book{
		Format:         book.FormatASE,
		Version:        int(major)*100 + int(minor),
		Description:    fmt.Sprintf("ASE %d.%d", major, minor),
		ColorCount:     len(colors),
		ColorspaceName: colorspaceName,
		Colors:         colors,
	}, nil
}

func readModelRGB(r *reader, modelKey, source string, blockIndex int) (color.RGB, error) {
	switch modelKey {
	case "RGB":
		red, err := r.readF32("RGB r")
		if err != nil {
			return color.RGB{}, err
		}
		green, err := r.readF32("RGB g")
		if err != nil {
			return color.RGB{}, err
		}
		blue, err := r.readF32("RGB b")
		if err != nil {
			return color.RGB{}, err
		}
		return color.NewRGBFromFloat(float64(red), float64(green), float64(blue)), nil

	case "CMYK":
		c, err := r.readF32("CMYK c")
		if err != nil {
			return color.RGB{}, err
		}
		m, err := r.readF32("CMYK m")
		if err != nil {
			return color.RGB{}, err
		}
		y, err := r.readF32("CMYK y")
		if err != nil {
			return color.RGB{}, err
		}
		k, err := r.readF32("CMYK k")
		if err != nil {
			return color.RGB{}, err
		}
		return color.CMYKFractionToRGB(float64(c), float64(m), float64(y), float64(k)), nil

	case "LAB":
		l, err := r.readF32("Lab l")
		if err != nil {
			return color.RGB{}, err
		}
		a, err := r.readF32("Lab a")
		if err != nil {
			return color.RGB{}, err
		}
		b, err := r.readF32("Lab b")
		if err != nil {
			return color.RGB{}, err
		}
		return color.RGBFromLabD50(color.LabValue{L: float64(l), A: float64(a), B: float64(b)}), nil

	case "GRAY":
		gray, err := r.readF32("Gray")
		if err != nil {
			return color.RGB{}, err
		}
		v := gray
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return color.NewRGBFromFloat(float64(v), float64(v), float64(v)), nil

	default:
		return color.RGB{}, &book.ParseError{
			Source:  source,
			Offset:  r.offset(),
			Context: fmt.Sprintf("block %d", blockIndex),
			Err:     fmt.Errorf("unsupported ASE model %q", modelKey),
		}
	}
}

func formatColorCode(modelKey string, colorType uint16) string {
	name, ok := colorTypeNames[colorType]
	if !ok {
		name = fmt.Sprintf("%d", colorType)
	}
	return fmt.Sprintf("%s/%s", modelKey, name)
}
