package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	recordVersionV1 = 1

	// maxFieldLen bounds every variable-length field so a corrupt blob
	// cannot drive an oversized allocation on decode.
	maxFieldLen = 1024
)

var (
	errRecordCorrupt   = errors.New("session record corrupt")
	errRecordTooLarge  = errors.New("session record too large")
	errFieldTooLong    = errors.New("session field too long")
	errUnknownVersion  = errors.New("unknown session record version")
)

// Encode serializes s into the compact binary form stored in Redis:
// a version byte, length-prefixed strings, a flags byte, and two big-endian
// int64 timestamps.
func Encode(s *Session, maxSize int) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)

	for _, field := range []string{s.UserID, s.Name, s.Email, s.Image} {
		if len(field) > maxFieldLen {
			return nil, errFieldTooLong
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	var flags byte
	if s.EmailVerified {
		flags |= 1
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	if maxSize > 0 && buf.Len() > maxSize {
		return nil, errRecordTooLarge
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by [Encode].
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, errRecordCorrupt
	}
	if version != recordVersionV1 {
		return nil, errUnknownVersion
	}

	readString := func() (string, error) {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return "", errRecordCorrupt
		}
		if length > maxFieldLen {
			return "", errRecordCorrupt
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return "", errRecordCorrupt
		}
		return string(raw), nil
	}

	s := &Session{}
	if s.UserID, err = readString(); err != nil {
		return nil, err
	}
	if s.Name, err = readString(); err != nil {
		return nil, err
	}
	if s.Email, err = readString(); err != nil {
		return nil, err
	}
	if s.Image, err = readString(); err != nil {
		return nil, err
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, errRecordCorrupt
	}
	s.EmailVerified = flags&1 != 0

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, errRecordCorrupt
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, errRecordCorrupt
	}

	return s, nil
}
