// Package cache holds the local cache store backends. Each backend keeps one
// JSON encoded case snapshot per installation key and replaces it wholesale.
package cache

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

var (
	// ErrCacheQuotaExceeded is returned by Put when the encoded snapshot is
	// larger than the configured capacity
	ErrCacheQuotaExceeded = goerr.New("cache quota exceeded")

	// ErrCorruptedSnapshot is returned by Get when the stored payload cannot be decoded
	ErrCorruptedSnapshot = goerr.New("corrupted cache snapshot")
)

const (
	KeyName   = "cache_key"
	SizeKey   = "size"
	keyPrefix = "repairdesk:cases"
)

// Key builds the storage key of an installation's case snapshot
func Key(installation string, scope model.Scope) string {
	return keyPrefix + ":" + installation + ":" + scope.Key()
}

type options struct {
	maxBytes int
}

type Option func(*options)

// WithMaxBytes bounds the size of an encoded snapshot. Zero means unbounded.
func WithMaxBytes(n int) Option {
	return func(o *options) {
		o.maxBytes = n
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) encode(key string, snapshot *model.CaseSnapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, goerr.New("snapshot is nil", goerr.V(KeyName, key))
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode snapshot", goerr.V(KeyName, key))
	}
	if o.maxBytes > 0 && len(raw) > o.maxBytes {
		return nil, goerr.Wrap(ErrCacheQuotaExceeded, "snapshot does not fit in cache",
			goerr.V(KeyName, key),
			goerr.V(SizeKey, len(raw)),
			goerr.V("max_bytes", o.maxBytes))
	}
	return raw, nil
}

func decode(key string, raw []byte) (*model.CaseSnapshot, error) {
	var snapshot model.CaseSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, goerr.Wrap(ErrCorruptedSnapshot, "failed to decode snapshot",
			goerr.V(KeyName, key),
			goerr.V("cause", err.Error()))
	}
	if snapshot.Cases == nil {
		snapshot.Cases = []*model.Case{}
	}
	return &snapshot, nil
}
