package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ARF-DEV/caffeine_reply_bot/model"
)

var _ Store = (*FileStore)(nil)

type (
	// fileData is the document written to disk.
	fileData struct {
		Guilds map[string][]model.ReplyPatternRecord `json:"guilds"`
	}

	// FileStore keeps every guild's patterns in one JSON file. The whole
	// file is rewritten on each Save.
	FileStore struct {
		filePath string
		mu       sync.Mutex
		log      *zap.Logger
	}
)

func NewFileStore(filePath string, log *zap.Logger) *FileStore {
	if filePath == "" {
		filePath = "reply_patterns.json"
	}
	return &FileStore{filePath: filePath, log: log}
}

func (fs *FileStore) Load(_ context.Context, guildID string) ([]model.ReplyPatternRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.read()
	if err != nil {
		return nil, err
	}
	return data.Guilds[guildID], nil
}

func (fs *FileStore) Save(_ context.Context, guildID string, patterns []model.ReplyPatternRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.read()
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		delete(data.Guilds, guildID)
	} else {
		data.Guilds[guildID] = patterns
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode reply patterns")
	}

	// write next to the target and rename so a crash never leaves half a file
	tmp, err := os.CreateTemp(filepath.Dir(fs.filePath), filepath.Base(fs.filePath)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if _, err = tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write reply patterns")
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close temp file")
	}
	if err = os.Rename(tmp.Name(), fs.filePath); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "replace reply patterns file")
	}

	fs.log.Debug("saved reply patterns",
		zap.String("guild_id", guildID),
		zap.Int("patterns", len(patterns)),
		zap.String("path", fs.filePath))
	return nil
}

func (fs *FileStore) read() (*fileData, error) {
	data := &fileData{Guilds: map[string][]model.ReplyPatternRecord{}}

	b, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, errors.Wrapf(err, "read %s", fs.filePath)
	}
	if err = json.Unmarshal(b, data); err != nil {
		return nil, errors.Wrapf(err, "decode %s", fs.filePath)
	}
	if data.Guilds == nil {
		data.Guilds = map[string][]model.ReplyPatternRecord{}
	}
	return data, nil
}
