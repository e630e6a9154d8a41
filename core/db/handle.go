package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/fbz-tec/dbport/core/config"
	"github.com/fbz-tec/dbport/internal/logger"
	"github.com/fbz-tec/dbport/internal/metrics"
)

// noCopy makes go vet's copylocks check flag copies of a Handle.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle is the sole owner of one Backend. It connects on Open, refuses
// statements while a Transaction borrows it and disconnects on Close.
// The zero Handle is empty; every operation on it fails with ErrConnection.
type Handle struct {
	_       noCopy
	backend Backend
	tx      *Transaction
}

var errEmptyHandle = errors.New("empty handle")

// Open takes ownership of b and connects it. On failure b is disconnected,
// no handle is returned and the error is the backend's connection error.
func Open(b Backend) (*Handle, error) {
	if b == nil {
		return nil, newError(ErrConfig, "open", errors.New("nil backend"))
	}
	if err := b.Connect(); err != nil {
		metrics.ObserveConnect(backendType(b), err)
		if derr := b.Disconnect(); derr != nil {
			logger.Debug("Cleanup after failed connect: %v", derr)
		}
		return nil, asConnection("open", err)
	}
	metrics.ObserveConnect(backendType(b), nil)
	logger.Debug("Connected: %s", b.Description())
	return &Handle{backend: b}, nil
}

// Connect builds a backend of type typ from the default registry and opens it.
func Connect(typ string, cfg config.Config) (*Handle, error) {
	b, err := Create(typ, cfg)
	if err != nil {
		return nil, err
	}
	return Open(b)
}

// Valid reports whether h still owns a backend.
func (h *Handle) Valid() bool { return h != nil && h.backend != nil }

func (h *Handle) Connected() bool { return h.Valid() && h.backend.IsConnected() }

// Backend returns the owned backend, or nil for an empty handle.
func (h *Handle) Backend() Backend {
	if !h.Valid() {
		return nil
	}
	return h.backend
}

func (h *Handle) Description() string {
	if !h.Valid() {
		return "<empty handle>"
	}
	return h.backend.Description()
}

// InTransaction reports whether a Transaction currently borrows h.
func (h *Handle) InTransaction() bool { return h.Valid() && h.tx != nil }

func (h *Handle) check(op string, exclusive bool) error {
	if !h.Valid() {
		return newError(ErrConnection, op, errEmptyHandle)
	}
	if exclusive && h.tx != nil {
		return errorf(ErrInUse, op, "transaction %s is still open", h.tx.id)
	}
	return nil
}

// Connect reconnects the owned backend; a no-op when already connected.
func (h *Handle) Connect() error {
	if err := h.check("connect", false); err != nil {
		return err
	}
	if h.backend.IsConnected() {
		return nil
	}
	err := h.backend.Connect()
	metrics.ObserveConnect(backendType(h.backend), err)
	if err != nil {
		return asConnection("connect", err)
	}
	logger.Debug("Connected: %s", h.backend.Description())
	return nil
}

// Disconnect closes the backend connection. The handle keeps the backend and
// may Connect again.
func (h *Handle) Disconnect() error {
	if err := h.check("disconnect", true); err != nil {
		return err
	}
	if err := h.backend.Disconnect(); err != nil {
		return newError(ErrConnection, "disconnect", err)
	}
	logger.Debug("Disconnected: %s", h.backend.Description())
	return nil
}

func (h *Handle) Exec(ctx context.Context, sql string) (*ResultSet, error) {
	if err := h.check("exec", true); err != nil {
		return nil, err
	}
	rs, err := h.backend.Exec(ctx, sql)
	metrics.ObserveQuery(backendType(h.backend), err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (h *Handle) ExecParams(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	if err := h.check("exec", true); err != nil {
		return nil, err
	}
	rs, err := h.backend.ExecParams(ctx, sql, args...)
	metrics.ObserveQuery(backendType(h.backend), err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// BeginTransaction starts a transaction that borrows h until it is committed,
// aborted or closed. Only one transaction may be open per handle.
func (h *Handle) BeginTransaction(ctx context.Context) (*Transaction, error) {
	if err := h.check("begin", true); err != nil {
		return nil, err
	}
	if !h.backend.IsConnected() {
		return nil, newError(ErrConnection, "begin", errors.New("not connected"))
	}
	beginner, ok := h.backend.(TxBeginner)
	if !ok {
		return nil, errorf(ErrUnsupported, "begin", "%s does not support transactions", backendType(h.backend))
	}
	raw, err := beginner.BeginTx(ctx)
	if err != nil {
		return nil, asQuery("begin", err)
	}
	tx := newTransaction(h, raw)
	h.tx = tx
	logger.Debug("Transaction %s started on %s", tx.id, h.backend.Description())
	return tx, nil
}

// Move transfers ownership of the backend to a new handle, leaving h empty.
func (h *Handle) Move() (*Handle, error) {
	if err := h.check("move", true); err != nil {
		return nil, err
	}
	moved := &Handle{backend: h.backend}
	h.backend = nil
	return moved, nil
}

// Replace disconnects the backend h currently owns and takes over src's
// backend, leaving src empty. Disconnect failures are logged, not returned.
func (h *Handle) Replace(src *Handle) error {
	if h == nil {
		return newError(ErrConnection, "replace", errEmptyHandle)
	}
	if h == src {
		return nil
	}
	if h.tx != nil {
		return errorf(ErrInUse, "replace", "transaction %s is still open", h.tx.id)
	}
	if src != nil && src.tx != nil {
		return errorf(ErrInUse, "replace", "source transaction %s is still open", src.tx.id)
	}
	h.release()
	if src != nil {
		h.backend = src.backend
		src.backend = nil
	}
	return nil
}

// Close aborts an open transaction and disconnects. Failures are logged;
// Close is safe to call more than once.
func (h *Handle) Close() {
	if h == nil {
		return
	}
	if h.tx != nil {
		h.tx.Close()
	}
	h.release()
}

func (h *Handle) release() {
	if h.backend == nil {
		return
	}
	b := h.backend
	h.backend = nil
	if !b.IsConnected() {
		return
	}
	if err := b.Disconnect(); err != nil {
		logger.Warn("Disconnect %s failed: %v", b.Description(), err)
		return
	}
	logger.Debug("Disconnected: %s", b.Description())
}

// backendType is the label used in metrics and messages.
func backendType(b Backend) string {
	if t, ok := b.(interface{ Type() string }); ok {
		return t.Type()
	}
	return fmt.Sprintf("%T", b)
}

func asConnection(op string, err error) error {
	var e *Error
	if errors.As(err, &e) && e.Kind == ErrConnection {
		return err
	}
	return newError(ErrConnection, op, err)
}
