package inmemdb

import (
	"sync"

	"github.com/trezcool/etudes/core/principal"
)

type (
	DB struct {
		principal *principalTable
		slot      *slotTable
	}

	principalTable struct {
		table map[string]*principal.Principal
		mutex sync.RWMutex
	}

	slotTable struct {
		table map[string][]byte
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		principal: &principalTable{table: make(map[string]*principal.Principal)},
		slot:      &slotTable{table: make(map[string][]byte)},
	}
}
