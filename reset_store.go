package authcore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	resetKeyPrefix       = "apr"
	resetRecordVersionV1 = 1
)

var (
	errResetNotFound         = errors.New("reset record not found")
	errResetRedisUnavailable = errors.New("reset redis unavailable")
)

// passwordResetRecord is the single-use half of one reset link. The link
// token is a signed JWT; this record, keyed by the token's JTI, is what
// makes the link one-shot. Consuming it deletes it, so a replayed token
// fails even while its signature is still valid.
type passwordResetRecord struct {
	UserID    string
	ExpiresAt int64
}

type passwordResetStore struct {
	redis  *redis.Client
	prefix string
}

func newPasswordResetStore(redisClient *redis.Client) *passwordResetStore {
	return &passwordResetStore{
		redis:  redisClient,
		prefix: resetKeyPrefix,
	}
}

func (s *passwordResetStore) key(resetID string) string {
	return s.prefix + ":" + resetID
}

// Save writes the single-use record for resetID.
func (s *passwordResetStore) Save(
	ctx context.Context,
	resetID string,
	record *passwordResetRecord,
	ttl time.Duration,
) error {
	encoded, err := encodePasswordResetRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(resetID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
	}

	return nil
}

// Consume atomically takes the record for resetID. The first caller wins;
// every later caller gets errResetNotFound.
func (s *passwordResetStore) Consume(ctx context.Context, resetID string) (*passwordResetRecord, error) {
	data, err := s.redis.GetDel(ctx, s.key(resetID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errResetNotFound
		}
		return nil, fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
	}

	record, err := decodePasswordResetRecord(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() > record.ExpiresAt {
		return nil, errResetNotFound
	}

	return record, nil
}

// Revoke drops the record for resetID if it still exists.
func (s *passwordResetStore) Revoke(ctx context.Context, resetID string) error {
	if err := s.redis.Del(ctx, s.key(resetID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
	}
	return nil
}

func encodePasswordResetRecord(record *passwordResetRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(resetRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.UserID) > 65535 {
		return nil, errors.New("reset record user id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)

	return buf.Bytes(), nil
}

func decodePasswordResetRecord(data []byte) (*passwordResetRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != resetRecordVersionV1 {
		return nil, errors.New("invalid reset record version")
	}

	record := &passwordResetRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var userIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &userIDLen); err != nil {
		return nil, err
	}

	userID := make([]byte, userIDLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	record.UserID = string(userID)

	return record, nil
}
