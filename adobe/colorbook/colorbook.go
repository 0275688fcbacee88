// Package colorbook parses Adobe Color Book (ACB) files into a [book.Book].
//
// Format is implemented per the [documentation], with the optional
// spot/process identifier trailer disambiguated by a two-step lookahead
// since the format gives no explicit flag for its presence.
//
// [documentation]: https://www.adobe.com/devnet-apps/photoshop/fileformatashtml/#50577411_pgfId-1066780
package colorbook

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/kennyp/swatchmatch/book"
	"github.com/kennyp/swatchmatch/color"
)

const (
	FileType = "8BCB" // Signature and filetype for a Color Book file.

	maxOptionalIdentifierLookahead = 32768 // guards against runaway reads on truncated input
)

//go:generate go tool stringer -type=BookID -trimprefix=BookID
type BookID uint16 // Unique ID for a ColorBook

const (
	BookIDANPA                  BookID = 3000
	BookIDFocoltone             BookID = 3001
	BookIDPantoneCoated         BookID = 3002
	BookIDPantoneProcess        BookID = 3003
	BookIDPantoneProSlim        BookID = 3004
	BookIDPantoneUncoated       BookID = 3005
	BookIDToyo                  BookID = 3006
	BookIDTrumatch              BookID = 3007
	BookIDHKSE                  BookID = 3008
	BookIDHKSK                  BookID = 3009
	BookIDHKSN                  BookID = 3010
	BookIDHKSZ                  BookID = 3011
	BookIDDIC                   BookID = 3012
	BookIDPantonePastelCoated   BookID = 3020
	BookIDPantonePastelUncoated BookID = 3021
	BookIDPantoneMetallic       BookID = 3022
)

//go:generate go tool stringer -type=ColorType -trimprefix=ColorType
type ColorType uint16

const (
	ColorTypeRGB  ColorType = 0
	ColorTypeCMYK ColorType = 2
	ColorTypeLab  ColorType = 7
)

var colorspaceNames = map[ColorType]string{
	ColorTypeRGB:  "RGB",
	ColorTypeCMYK: "CMYK",
	ColorTypeLab:  "Lab",
}

// reader tracks a byte offset alongside an io.Reader so parse errors can
// report where in the file they occurred, the way the original parser's
// ByteReader does.
type reader struct {
	r      *bytes.Reader
	source string
}

func newReader(data []byte, source string) *reader {
	return &reader{r: bytes.NewReader(data), source: source}
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

// peekU32 reads a big-endian uint32 starting `offset` bytes past the current
// position without consuming it. It returns ok=false if fewer than 4 bytes
// remain at that offset.
func (r *reader) peekU32(offset int) (value uint32, ok bool) {
	pos, err := r.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}

	remaining := r.r.Len()
	if remaining-offset < 4 {
		return 0, false
	}

	buf := make([]byte, 4)
	if _, err := r.r.ReadAt(buf, pos+int64(offset)); err != nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(buf), true
}

func (r *reader) remaining() int {
	return r.r.Len()
}

// readPascalUTF16BE reads a u32 char count followed by that many UTF-16BE
// code units, decoding them to a Go string and trimming trailing NULs.
func readPascalUTF16BE(r *reader, context string) (string, error) {
	length, err := r.readU32(context + " length")
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

	slog.Debug("read pascal string", slog.String("context", context), slog.Int("chars", int(length)))

	var out bytes.Buffer
	u16s := make([]uint16, 1)
	b8 := make([]byte, 4)
	for i := 0; i+1 < len(raw); i += 2 {
		u16s[0] = uint16(raw[i])<<8 | uint16(raw[i+1])
		decoded := utf16.Decode(u16s)
		n := utf8.EncodeRune(b8, decoded[0])
		out.Write(b8[:n])
	}

	return trimTrailingNUL(out.String()), nil
}

func trimTrailingNUL(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}

// Parse decodes an Adobe Color Book file's raw bytes into a book.Book.
// source is used only to annotate errors (typically the file path).
func Parse(data []byte, source string) (*book.Book, error) {
	r := newReader(data, source)

	signature, err := r.readBytes(4, "signature")
	if err != nil {
		return nil, err
	}
	if string(signature) != FileType {
		return nil, r.fail("signature", fmt.Errorf("invalid signature %q, expected %q", signature, FileType))
	}

	version, err := r.readU16("version")
	if err != nil {
		return nil, err
	}

	bookID, err := r.readU16("book id")
	if err != nil {
		return nil, err
	}

	title, err := readPascalUTF16BE(r, "title")
	if err != nil {
		return nil, err
	}
	prefix, err := readPascalUTF16BE(r, "prefix")
	if err != nil {
		return nil, err
	}
	suffix, err := readPascalUTF16BE(r, "suffix")
	if err != nil {
		return nil, err
	}
	description, err := readPascalUTF16BE(r, "description")
	if err != nil {
		return nil, err
	}

	colorCount, err := r.readU16("color count")
	if err != nil {
		return nil, err
	}
	pageSize, err := r.readU16("page size")
	if err != nil {
		return nil, err
	}
	pageSelectorOffset, err := r.readU16("page selector offset")
	if err != nil {
		return nil, err
	}
	colorspaceRaw, err := r.readU16("colorspace/library identifier")
	if err != nil {
		return nil, err
	}
	colorspace := ColorType(colorspaceRaw)

	colorspaceName, ok := colorspaceNames[colorspace]
	if !ok {
		return nil, r.fail("colorspace", fmt.Errorf("unsupported colorspace %d", colorspaceRaw))
	}

	colors := make([]book.ColorRecord, 0, colorCount)
	for index := 0; index < int(colorCount); index++ {
		recordContext := fmt.Sprintf("record %d/%d", index+1, colorCount)

		name, err := readPascalUTF16BE(r, recordContext+" name")
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}

		codeRaw, err := r.readBytes(6, recordContext+" color code")
		if err != nil {
			return nil, err
		}
		code := decodeLatin1Trimmed(codeRaw)

		var rgb color.RGB
		switch colorspace {
		case ColorTypeRGB:
			comp, err := r.readBytes(3, recordContext+" RGB components")
			if err != nil {
				return nil, err
			}
			rgb = color.NewRGB(comp[0], comp[1], comp[2])
		case ColorTypeCMYK:
			comp, err := r.readBytes(4, recordContext+" CMYK components")
			if err != nil {
				return nil, err
			}
			rgb = color.CMYKBytesToRGB(comp[0], comp[1], comp[2], comp[3])
		case ColorTypeLab:
			comp, err := r.readBytes(3, recordContext+" Lab components")
			if err != nil {
				return nil, err
			}
			rgb = color.LabBytesToRGB(comp[0], comp[1], comp[2])
		}

		consumeOptionalSpotIdentifier(r, int(colorCount)-index-1)

		slog.Debug("parsed color", slog.Int("index", index), slog.String("name", name), slog.String("hex", color.RGBToHex(rgb)))

		colors = append(colors, book.ColorRecord{Name: name, Code: code, Hex: color.RGBToHex(rgb)})
	}

	return &book.Book{
		Format:             book.FormatACB,
		Version:            int(version),
		BookID:             int(bookID),
		Title:              title,
		Prefix:             prefix,
		Suffix:             suffix,
		Description:        description,
		ColorCount:         len(colors),
		PageSize:           int(pageSize),
		PageSelectorOffset: int(pageSelectorOffset),
		ColorspaceName:     colorspaceName,
		Colors:             colors,
	}, nil
}

func decodeLatin1Trimmed(raw []byte) string {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	s := string(runes)

	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == 0) {
		s = s[:len(s)-1]
	}
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	return s
}

// consumeOptionalSpotIdentifier discards the 8-byte optional spot/process
// identifier trailer some ACB records carry, when present. The format gives
// no flag for its presence, so presence is inferred by checking whether the
// next 8 bytes, if skipped, still land on something that looks like the
// start of the next color record's Pascal name.
func consumeOptionalSpotIdentifier(r *reader, remainingRecords int) {
	if remainingRecords <= 0 {
		return
	}

	if looksLikeNextRecord(r, 0) {
		return
	}

	if r.remaining() >= 8 && looksLikeNextRecord(r, 8) {
		r.readBytes(8, "optional spot/process identifier")
	}
}

func looksLikeNextRecord(r *reader, offset int) bool {
	nameLength, ok := r.peekU32(offset)
	if !ok {
		return false
	}

	remainingAfterOffset := r.remaining() - offset
	if nameLength == 0 {
		return remainingAfterOffset >= 4
	}
	if nameLength > maxOptionalIdentifierLookahead {
		return false
	}

	required := 4 + int(nameLength)*2
	return required <= remainingAfterOffset
}
