package contextstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"TradingCore/internal/model"
)

// FileStore keeps one <TICKER>.txt file per ticker in Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore { return &FileStore{Dir: dir} }

func (s *FileStore) path(ticker model.Ticker) (string, error) {
	name := string(ticker)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid ticker %q", name)
	}
	return filepath.Join(s.Dir, name+".txt"), nil
}

// Load reads the context file. Returns ErrNotFound if the file doesn't exist or is empty.
func (s *FileStore) Load(_ context.Context, ticker model.Ticker) (string, error) {
	p, err := s.path(ticker)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read context %s: %w", ticker, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrNotFound
	}
	return text, nil
}

// Save writes the context through a temp file and rename so readers never see
// a partial file.
func (s *FileStore) Save(_ context.Context, ticker model.Ticker, text string) error {
	p, err := s.path(ticker)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create context dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, "."+string(ticker)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp context: %w", err)
	}
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write context %s: %w", ticker, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close context %s: %w", ticker, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename context %s: %w", ticker, err)
	}
	return nil
}
