// Package signature finds the signature stamp image a technician uploaded to
// object storage and hands out a time-limited URL for it.
package signature

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/storage"
	"github.com/leonelpereyra44/pestcontrol/internal/store"

	"go.uber.org/zap"
)

// State of a resolution.
type State string

const (
	StateNone    State = "none"    // no technician selected
	StateMissing State = "missing" // technician has no stamp on file
	StateReady   State = "ready"
	StateError   State = "error" // storage listing or signing failed
)

const (
	MsgNone          = "Seleccione un técnico"
	MsgMissing       = "Este técnico no tiene sello cargado"
	MsgListFailed    = "Error al buscar sello en storage"
	MsgSigningFailed = "Error al generar URL del sello"
)

// cached URLs expire this long before the signature itself
const cacheMargin = 5 * time.Minute

// ObjectStore the storage operations the resolver needs.
type ObjectStore interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]storage.Object, error)
	CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}

// Result outcome of a resolution. Path is the storage path persisted on the control.
type Result struct {
	State   State  `json:"state"`
	URL     string `json:"url,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
}

// Resolver resolves stamps and remembers the last one resolved.
type Resolver struct {
	objects ObjectStore
	cache   store.KV // optional
	bucket  string
	ttl     time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	current Result
}

// NewResolver creates a resolver over bucket. cache may be nil.
func NewResolver(objects ObjectStore, cache store.KV, bucket string, ttl time.Duration, logger *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Resolver{
		objects: objects,
		cache:   cache,
		bucket:  bucket,
		ttl:     ttl,
		logger:  logger,
		current: Result{State: StateNone, Message: MsgNone},
	}
}

// Folder returns the storage folder holding a technician's stamp.
func Folder(technicianID string) string {
	return technicianID + "/sello/"
}

// Resolve looks up the technician's stamp and retains the result.
// A storage failure returns StateError together with the error; a technician
// without a stamp returns StateMissing and no error.
func (r *Resolver) Resolve(ctx context.Context, technicianID string) (Result, error) {
	res, err := r.Lookup(ctx, technicianID)
	r.mu.Lock()
	r.current = res
	r.mu.Unlock()
	return res, err
}

// Lookup resolves without touching the retained state.
func (r *Resolver) Lookup(ctx context.Context, technicianID string) (Result, error) {
	if technicianID == "" {
		return Result{State: StateNone, Message: MsgNone}, nil
	}

	folder := Folder(technicianID)
	objects, err := r.objects.ListObjects(ctx, r.bucket, folder)
	if err != nil {
		r.logger.Error("Failed to list signature folder", zap.String("technician_id", technicianID), zap.Error(err))
		return Result{State: StateError, Message: MsgListFailed}, apperrors.Remote("list signature", err)
	}
	if len(objects) == 0 {
		r.logger.Debug("Technician has no signature", zap.String("technician_id", technicianID))
		return Result{State: StateMissing, Message: MsgMissing}, nil
	}

	// several uploads: the lexically smallest name wins
	names := make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, o.Name)
	}
	sort.Strings(names)
	path := folder + names[0]

	url, err := r.signedURL(ctx, path)
	if err != nil {
		r.logger.Error("Failed to sign signature URL", zap.String("path", path), zap.Error(err))
		return Result{State: StateError, Message: MsgSigningFailed}, apperrors.Remote("sign signature", err)
	}
	return Result{State: StateReady, URL: url, Path: path}, nil
}

func (r *Resolver) signedURL(ctx context.Context, path string) (string, error) {
	key := "sello:" + r.bucket + ":" + path
	if r.cache != nil {
		url, err := r.cache.Get(ctx, key)
		if err == nil {
			return url, nil
		}
		if !errors.Is(err, store.ErrMiss) {
			r.logger.Warn("Signature cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	url, err := r.objects.CreateSignedURL(ctx, r.bucket, path, r.ttl)
	if err != nil {
		return "", err
	}

	if r.cache != nil && r.ttl > cacheMargin {
		if err := r.cache.Set(ctx, key, url, r.ttl-cacheMargin); err != nil {
			r.logger.Warn("Signature cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return url, nil
}

// Current returns the retained result.
func (r *Resolver) Current() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Path returns the storage path of the retained stamp, empty unless ready.
func (r *Resolver) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.State != StateReady {
		return ""
	}
	return r.current.Path
}

// Clear resets to "no technician selected".
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.current = Result{State: StateNone, Message: MsgNone}
	r.mu.Unlock()
}
