package cache

import (
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/rigado/snp"
)

type peerCache struct {
	filename string
	lock     sync.RWMutex
}

// New returns a PeerCache kept as a JSON file at filename.
func New(filename string) snp.PeerCache {
	pc := peerCache{
		filename: filename,
	}

	return &pc
}

func (pc *peerCache) Store(a snp.Addr, r snp.PeerRecord) error {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	cache, err := pc.loadExisting()
	if err != nil {
		return err
	}

	r.Addr = a.String()
	r.AddrType = a.Type
	cache[a.String()] = r

	return pc.storeCache(cache)
}

func (pc *peerCache) Load(a snp.Addr) (snp.PeerRecord, error) {
	pc.lock.RLock()
	defer pc.lock.RUnlock()

	cache, err := pc.loadExisting()
	if err != nil {
		return snp.PeerRecord{}, err
	}

	r, ok := cache[a.String()]
	if !ok {
		return snp.PeerRecord{}, fmt.Errorf("peer %s not found in cache", a.String())
	}

	return r, nil
}

// List returns every record, most recently seen first.
func (pc *peerCache) List() ([]snp.PeerRecord, error) {
	pc.lock.RLock()
	defer pc.lock.RUnlock()

	cache, err := pc.loadExisting()
	if err != nil {
		return nil, err
	}

	out := make([]snp.PeerRecord, 0, len(cache))
	for _, r := range cache {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out, nil
}

func (pc *peerCache) Clear() error {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	err := os.Remove(pc.filename)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

func (pc *peerCache) loadExisting() (map[string]snp.PeerRecord, error) {
	_, err := os.Stat(pc.filename)
	if os.IsNotExist(err) {
		return map[string]snp.PeerRecord{}, nil
	}

	in, err := ioutil.ReadFile(pc.filename)
	if err != nil {
		return nil, err
	}

	var cache map[string]snp.PeerRecord
	err = jsoniter.Unmarshal(in, &cache)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = map[string]snp.PeerRecord{}
	}

	return cache, nil
}

func (pc *peerCache) storeCache(cache map[string]snp.PeerRecord) error {
	out, err := jsoniter.Marshal(cache)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(pc.filename, out, 0644)
}
