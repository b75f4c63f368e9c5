package memory

import (
	"sync"
	"time"

	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process backend with the same semantics as the hosted one.
// It is used by tests and by the development mode of the server.
type Memory struct {
	cases    *caseRepository
	realtime *broker
	ledger   *ledgerRepository
	faults   *faults
}

var _ interfaces.Repository = &Memory{}

type Option func(*Memory)

// WithClock replaces the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.cases.now = now
		m.realtime.now = now
	}
}

func New(opts ...Option) *Memory {
	f := newFaults()
	b := newBroker(f)

	m := &Memory{
		cases:    newCaseRepository(f, b),
		realtime: b,
		ledger:   newLedgerRepository(f),
		faults:   f,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Case() interfaces.CaseSource {
	return m.cases
}

func (m *Memory) Realtime() interfaces.RealtimeSource {
	return m.realtime
}

func (m *Memory) Ledger() interfaces.LedgerRepository {
	return m.ledger
}

func (m *Memory) Close() error {
	m.realtime.closeAll()
	return nil
}

// SetError makes every following call of op fail with err. A nil err clears it.
func (m *Memory) SetError(op Op, err error) {
	m.faults.set(op, err)
}

// Calls returns how many times op was invoked
func (m *Memory) Calls(op Op) int {
	return m.faults.count(op)
}

// Disconnect breaks every open realtime stream with err, as a dropped
// network connection would.
func (m *Memory) Disconnect(err error) {
	m.realtime.disconnect(err)
}

// Subscribers returns the number of open realtime streams
func (m *Memory) Subscribers() int {
	return m.realtime.size()
}

// DeleteCase removes a case as administrative cleanup does
func (m *Memory) DeleteCase(id string) bool {
	return m.cases.delete(id)
}

// PutInvoice stores an invoice row
func (m *Memory) PutInvoice(inv *model.Invoice) {
	m.ledger.putInvoice(inv)
}

// PutExpense stores an expense row
func (m *Memory) PutExpense(exp *model.Expense) {
	m.ledger.putExpense(exp)
}

// Op names a backend call for fault injection and call counting
type Op string

const (
	OpListOwnedCases   Op = "ListOwnedCases"
	OpListPublicCases  Op = "ListPublicCases"
	OpUpdateCaseStatus Op = "UpdateCaseStatus"
	OpUpdatePublicCase Op = "UpdatePublicCase"
	OpCreateCase       Op = "CreateCase"
	OpCreatePublicCase Op = "CreatePublicCase"
	OpSubscribe        Op = "Subscribe"
	OpListInvoices     Op = "ListInvoices"
	OpListExpenses     Op = "ListExpenses"
)

type faults struct {
	mu    sync.Mutex
	errs  map[Op]error
	calls map[Op]int
}

func newFaults() *faults {
	return &faults{
		errs:  make(map[Op]error),
		calls: make(map[Op]int),
	}
}

func (f *faults) set(op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// record counts a call of op and returns the injected error, if any
func (f *faults) record(op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func (f *faults) count(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}
