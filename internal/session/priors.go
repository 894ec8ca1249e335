package session

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/betbot/roadbot/internal/domain"
)

// PriorStore 跨鞋先验存储
// 换鞋时把上一鞋折算后的先验写入，下一鞋（以及重启后）读出续用。
type PriorStore interface {
	Get(table string) (domain.Counts, bool, error)
	Put(table string, c domain.Counts) error
	Close() error
}

// MemoryPriorStore 进程内实现（测试和回放用）
type MemoryPriorStore struct {
	mu sync.RWMutex
	m  map[string]domain.Counts
}

// NewMemoryPriorStore 创建内存先验存储
func NewMemoryPriorStore() *MemoryPriorStore {
	return &MemoryPriorStore{m: make(map[string]domain.Counts)}
}

func (s *MemoryPriorStore) Get(table string) (domain.Counts, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.m[table]
	return c, ok, nil
}

func (s *MemoryPriorStore) Put(table string, c domain.Counts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[table] = c
	return nil
}

func (s *MemoryPriorStore) Close() error { return nil }

// BadgerPriorStore Badger 持久化实现
// 每张桌一个键，值为 JSON 编码的伪计数。
type BadgerPriorStore struct {
	db *badger.DB
}

// OpenBadgerPriorStore 打开（或创建）先验库
func OpenBadgerPriorStore(path string) (*BadgerPriorStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("session: prior store path is required")
	}
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &BadgerPriorStore{db: db}, nil
}

func (s *BadgerPriorStore) key(table string) []byte {
	return []byte("prior/" + strings.TrimSpace(table))
}

func (s *BadgerPriorStore) Get(table string) (domain.Counts, bool, error) {
	if s == nil || s.db == nil {
		return domain.Counts{}, false, errors.New("session: prior store not opened")
	}
	var out domain.Counts
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(table))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &out); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return domain.Counts{}, false, err
	}
	return out, found, nil
}

func (s *BadgerPriorStore) Put(table string, c domain.Counts) error {
	if s == nil || s.db == nil {
		return errors.New("session: prior store not opened")
	}
	buf, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(table), buf)
	})
}

func (s *BadgerPriorStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
