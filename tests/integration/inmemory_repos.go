// Package integration exercises the full service stack against in-memory
// repositories. The fakes reproduce the two storage behaviors the services
// depend on: not-found reads return (nil, nil), and the ForUpdate variants
// take a real per-row lock that is held until the surrounding transaction
// commits or rolls back, so lock-then-recheck races behave like Postgres.
package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memTx emulates a pgx.Tx just far enough for the services: it carries the
// row locks acquired by ForUpdate calls and releases them exactly once on
// Commit or Rollback. Writes are applied eagerly; the services only write
// after their checks pass, so rollback never needs to undo anything.
type memTx struct {
	pgx.Tx
	mu    sync.Mutex
	held  []*sync.Mutex
	owned map[*sync.Mutex]bool
	done  bool
}

func newMemTx() *memTx {
	return &memTx{owned: map[*sync.Mutex]bool{}}
}

// acquire blocks until the row lock is available, like FOR UPDATE. Re-locking
// a row already held by this transaction is a no-op.
func (t *memTx) acquire(rowMu *sync.Mutex) {
	t.mu.Lock()
	already := t.owned[rowMu]
	t.mu.Unlock()
	if already {
		return
	}
	rowMu.Lock()
	t.mu.Lock()
	t.owned[rowMu] = true
	t.held = append(t.held, rowMu)
	t.mu.Unlock()
}

func (t *memTx) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
}

func (t *memTx) Commit(_ context.Context) error   { t.release(); return nil }
func (t *memTx) Rollback(_ context.Context) error { t.release(); return nil }

func asMemTx(tx pgx.Tx) *memTx {
	mt, ok := tx.(*memTx)
	if !ok {
		panic(fmt.Sprintf("expected *memTx, got %T", tx))
	}
	return mt
}

// lockable pairs a stored row with its FOR UPDATE mutex.
type walletRow struct {
	mu sync.Mutex
	v  domain.Wallet
}

type cryptoRow struct {
	mu sync.Mutex
	v  domain.CryptoAccount
}

type cardRow struct {
	mu sync.Mutex
	v  domain.VirtualCard
}

type txnRow struct {
	mu sync.Mutex
	v  domain.Transaction
}

type depositRow struct {
	mu sync.Mutex
	v  domain.Deposit
}

// memStore is the shared backing state. store.mu guards map and row-value
// access for memory consistency; the per-row mutexes only serialize the
// ForUpdate critical sections.
type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*domain.User
	wallets       map[uuid.UUID]*walletRow
	cryptoAccts   map[uuid.UUID]*cryptoRow
	cards         map[uuid.UUID]*cardRow
	transactions  map[uuid.UUID]*txnRow
	deposits      map[uuid.UUID]*depositRow
	beneficiaries map[uuid.UUID]*domain.Beneficiary
	categories    map[string]domain.BillCategory
	providers     map[string]domain.BillProvider // keyed category/provider
	plans         map[string]domain.BillPlan     // keyed providerID/plan
	currencies    map[string]domain.WalletCurrency
	notifications []string
}

func newMemStore() *memStore {
	s := &memStore{
		users:         map[uuid.UUID]*domain.User{},
		wallets:       map[uuid.UUID]*walletRow{},
		cryptoAccts:   map[uuid.UUID]*cryptoRow{},
		cards:         map[uuid.UUID]*cardRow{},
		transactions:  map[uuid.UUID]*txnRow{},
		deposits:      map[uuid.UUID]*depositRow{},
		beneficiaries: map[uuid.UUID]*domain.Beneficiary{},
		categories:    map[string]domain.BillCategory{},
		providers:     map[string]domain.BillProvider{},
		plans:         map[string]domain.BillPlan{},
		currencies:    map[string]domain.WalletCurrency{},
	}
	s.seedCatalog()
	return s
}

// seedCatalog loads the same reference data the seed migration ships.
func (s *memStore) seedCatalog() {
	for _, c := range []domain.BillCategory{
		{Code: "airtime", Name: "Airtime"},
		{Code: "data", Name: "Mobile Data", HasPlans: true},
		{Code: "electricity", Name: "Electricity"},
		{Code: "cable", Name: "Cable TV", HasPlans: true},
	} {
		s.categories[c.Code] = c
	}
	for _, p := range []struct{ cat, code, name string }{
		{"airtime", "mtn", "MTN"},
		{"airtime", "glo", "Glo"},
		{"data", "mtn", "MTN Data"},
		{"electricity", "ekedc", "Eko Electricity"},
		{"cable", "dstv", "DStv"},
	} {
		prov := domain.BillProvider{ID: uuid.New(), CategoryCode: p.cat, Code: p.code, Name: p.name}
		s.providers[p.cat+"/"+p.code] = prov
	}
	dataMTN := s.providers["data/mtn"]
	s.plans[dataMTN.ID.String()+"/data-1gb"] = domain.BillPlan{
		ID: uuid.New(), ProviderID: dataMTN.ID, Code: "data-1gb",
		Name: "1GB / 30 days", Amount: decimal.RequireFromString("1000"), Currency: "NGN",
	}
	for _, wc := range []domain.WalletCurrency{
		{ID: uuid.New(), Blockchain: "bitcoin", Currency: "BTC", Name: "Bitcoin", RateUSD: decimal.RequireFromString("50000")},
		{ID: uuid.New(), Blockchain: "ethereum", Currency: "ETH", Name: "Ethereum", RateUSD: decimal.RequireFromString("2500")},
	} {
		s.currencies[wc.Currency] = wc
	}
}

// Compile-time checks: a drifting port surfaces as a build error here.
var (
	_ ports.UserRepository          = (*memUserRepo)(nil)
	_ ports.WalletRepository        = (*memWalletRepo)(nil)
	_ ports.CryptoAccountRepository = (*memCryptoRepo)(nil)
	_ ports.CardRepository          = (*memCardRepo)(nil)
	_ ports.TransactionRepository   = (*memTransactionRepo)(nil)
	_ ports.DepositRepository       = (*memDepositRepo)(nil)
	_ ports.BeneficiaryRepository   = (*memBeneficiaryRepo)(nil)
	_ ports.CatalogRepository       = (*memCatalogRepo)(nil)
	_ ports.CurrencyRepository      = (*memCurrencyRepo)(nil)
	_ ports.RateCache               = memRateCache{}
	_ ports.NotificationRepository  = (*memNotificationRepo)(nil)
	_ ports.DBTransactor            = memTransactor{}
)

// --- Transactor ---

type memTransactor struct{}

func (memTransactor) Begin(_ context.Context) (pgx.Tx, error) { return newMemTx(), nil }

// --- UserRepository ---

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return fmt.Errorf("duplicate email: %s", user.Email)
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) SetPinHash(_ context.Context, id uuid.UUID, pinHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user not found: %s", id)
	}
	u.PinHash = &pinHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// --- WalletRepository ---

type memWalletRepo struct{ s *memStore }

func (r *memWalletRepo) insert(wallet *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.wallets {
		if row.v.UserID == wallet.UserID && row.v.Currency == wallet.Currency {
			return fmt.Errorf("duplicate wallet: %s %s", wallet.UserID, wallet.Currency)
		}
	}
	r.s.wallets[wallet.ID] = &walletRow{v: *wallet}
	return nil
}

func (r *memWalletRepo) Create(_ context.Context, wallet *domain.Wallet) error {
	return r.insert(wallet)
}

func (r *memWalletRepo) CreateInTx(_ context.Context, _ pgx.Tx, wallet *domain.Wallet) error {
	return r.insert(wallet)
}

func (r *memWalletRepo) findRow(userID uuid.UUID, currency string) *walletRow {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.wallets {
		if row.v.UserID == userID && row.v.Currency == currency {
			return row
		}
	}
	return nil
}

func (r *memWalletRepo) GetByUserAndCurrency(_ context.Context, userID uuid.UUID, currency string) (*domain.Wallet, error) {
	row := r.findRow(userID, currency)
	if row == nil {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := row.v
	return &cp, nil
}

func (r *memWalletRepo) GetByUserAndCurrencyForUpdate(_ context.Context, tx pgx.Tx, userID uuid.UUID, currency string) (*domain.Wallet, error) {
	row := r.findRow(userID, currency)
	if row == nil {
		return nil, nil
	}
	asMemTx(tx).acquire(&row.mu)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := row.v
	return &cp, nil
}

func (r *memWalletRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Wallet
	for _, row := range r.s.wallets {
		if row.v.UserID == userID {
			out = append(out, row.v)
		}
	}
	return out, nil
}

func (r *memWalletRepo) UpdateBalances(_ context.Context, _ pgx.Tx, walletID uuid.UUID, balance, lockedBalance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	if balance.IsNegative() || lockedBalance.IsNegative() {
		return fmt.Errorf("balance check violated for wallet %s", walletID)
	}
	row.v.Balance = balance
	row.v.LockedBalance = lockedBalance
	row.v.UpdatedAt = time.Now().UTC()
	return nil
}

// --- CryptoAccountRepository ---

type memCryptoRepo struct{ s *memStore }

func (r *memCryptoRepo) CreateInTx(_ context.Context, _ pgx.Tx, account *domain.CryptoAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.cryptoAccts {
		if row.v.UserID == account.UserID && row.v.Currency == account.Currency {
			return fmt.Errorf("duplicate crypto account: %s %s", account.UserID, account.Currency)
		}
	}
	r.s.cryptoAccts[account.ID] = &cryptoRow{v: *account}
	return nil
}

func (r *memCryptoRepo) findRow(userID uuid.UUID, currency string) *cryptoRow {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.cryptoAccts {
		if row.v.UserID == userID && row.v.Currency == currency {
			return row
		}
	}
	return nil
}

func (r *memCryptoRepo) GetByUserAndCurrency(_ context.Context, userID uuid.UUID, currency string) (*domain.CryptoAccount, error) {
	row := r.findRow(userID, currency)
	if row == nil {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := row.v
	return &cp, nil
}

func (r *memCryptoRepo) GetByUserAndCurrencyForUpdate(_ context.Context, tx pgx.Tx, userID uuid.UUID, currency string) (*domain.CryptoAccount, error) {
	row := r.findRow(userID, currency)
	if row == nil {
		return nil, nil
	}
	asMemTx(tx).acquire(&row.mu)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := row.v
	return &cp, nil
}

func (r *memCryptoRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.CryptoAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.CryptoAccount
	for _, row := range r.s.cryptoAccts {
		if row.v.UserID == userID {
			out = append(out, row.v)
		}
	}
	return out, nil
}

func (r *memCryptoRepo) UpdateBalance(_ context.Context, _ pgx.Tx, accountID uuid.UUID, balance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.cryptoAccts[accountID]
	if !ok {
		return fmt.Errorf("crypto account not found: %s", accountID)
	}
	if balance.IsNegative() {
		return fmt.Errorf("balance check violated for crypto account %s", accountID)
	}
	row.v.Balance = balance
	row.v.UpdatedAt = time.Now().UTC()
	return nil
}

// --- CardRepository ---

type memCardRepo struct{ s *memStore }

func (r *memCardRepo) CreateInTx(_ context.Context, _ pgx.Tx, card *domain.VirtualCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cards[card.ID] = &cardRow{v: *card}
	return nil
}

func (r *memCardRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.VirtualCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.cards[id]
	if !ok {
		return nil, nil
	}
	cp := row.v
	return &cp, nil
}

func (r *memCardRepo) GetByIDForUpdate(_ context.Context, tx pgx.Tx, id uuid.UUID) (*domain.VirtualCard, error) {
	r.s.mu.Lock()
	row, ok := r.s.cards[id]
	r.s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	asMemTx(tx).acquire(&row.mu)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := row.v
	return &cp, nil
}

func (r *memCardRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.VirtualCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.VirtualCard
	for _, row := range r.s.cards {
		if row.v.UserID == userID {
			out = append(out, row.v)
		}
	}
	return out, nil
}

func (r *memCardRepo) UpdateBalance(_ context.Context, _ pgx.Tx, cardID uuid.UUID, balance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.cards[cardID]
	if !ok {
		return fmt.Errorf("card not found: %s", cardID)
	}
	if balance.IsNegative() {
		return fmt.Errorf("balance check violated for card %s", cardID)
	}
	row.v.Balance = balance
	row.v.UpdatedAt = time.Now().UTC()
	return nil
}

// --- TransactionRepository ---

type memTransactionRepo struct{ s *memStore }

func (r *memTransactionRepo) insert(txn *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.transactions {
		if row.v.TransactionID == txn.TransactionID {
			return fmt.Errorf("duplicate transaction_id: %s", txn.TransactionID)
		}
		if row.v.Reference == txn.Reference {
			return fmt.Errorf("duplicate reference: %s", txn.Reference)
		}
	}
	cp := *txn
	cp.Metadata = copyMetadata(txn.Metadata)
	r.s.transactions[txn.ID] = &txnRow{v: cp}
	return nil
}

func (r *memTransactionRepo) Create(_ context.Context, txn *domain.Transaction) error {
	return r.insert(txn)
}

func (r *memTransactionRepo) CreateInTx(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
	return r.insert(txn)
}

func (r *memTransactionRepo) findRow(userID uuid.UUID, transactionID string) *txnRow {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.transactions {
		if row.v.UserID == userID && row.v.TransactionID == transactionID {
			return row
		}
	}
	return nil
}

func (r *memTransactionRepo) GetByTransactionID(_ context.Context, userID uuid.UUID, transactionID string) (*domain.Transaction, error) {
	row := r.findRow(userID, transactionID)
	if row == nil {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := row.v
	cp.Metadata = copyMetadata(row.v.Metadata)
	return &cp, nil
}

// GetPendingForUpdate takes the row lock first and re-reads the status under
// it, matching the status-filtered FOR UPDATE query: a transaction settled by
// a concurrent confirm yields no row.
func (r *memTransactionRepo) GetPendingForUpdate(_ context.Context, tx pgx.Tx, userID uuid.UUID, transactionID string) (*domain.Transaction, error) {
	row := r.findRow(userID, transactionID)
	if row == nil {
		return nil, nil
	}
	asMemTx(tx).acquire(&row.mu)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row.v.Status != domain.TransactionStatusPending {
		return nil, nil
	}
	cp := row.v
	cp.Metadata = copyMetadata(row.v.Metadata)
	return &cp, nil
}

func (r *memTransactionRepo) UpdateStatus(_ context.Context, _ pgx.Tx, id uuid.UUID, status domain.TransactionStatus, completedAt *time.Time, extraMetadata domain.Metadata) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.transactions[id]
	if !ok {
		return fmt.Errorf("transaction not found: %s", id)
	}
	row.v.Status = status
	row.v.CompletedAt = completedAt
	if row.v.Metadata == nil {
		row.v.Metadata = domain.Metadata{}
	}
	for k, v := range extraMetadata {
		row.v.Metadata[k] = v
	}
	return nil
}

func (r *memTransactionRepo) ExistsByTransactionID(_ context.Context, transactionID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.transactions {
		if row.v.TransactionID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTransactionRepo) ExistsByReference(_ context.Context, reference string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.transactions {
		if row.v.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTransactionRepo) List(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []domain.Transaction
	for _, row := range r.s.transactions {
		t := row.v
		if t.UserID != params.UserID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.From != nil && t.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && t.CreatedAt.After(*params.To) {
			continue
		}
		t.Metadata = copyMetadata(row.v.Metadata)
		matched = append(matched, t)
	}
	// Newest first, like the ORDER BY created_at DESC query.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	page, pageSize := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memTransactionRepo) GetStats(_ context.Context, userID uuid.UUID, periodStart *time.Time) (*ports.TransactionStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := &ports.TransactionStats{
		TotalDeposited: decimal.Zero,
		TotalSpent:     decimal.Zero,
	}
	for _, row := range r.s.transactions {
		t := row.v
		if t.UserID != userID {
			continue
		}
		if periodStart != nil && t.CreatedAt.Before(*periodStart) {
			continue
		}
		stats.TotalTransactions++
		switch t.Status {
		case domain.TransactionStatusCompleted:
			stats.Completed++
			if t.Type == domain.TransactionTypeDeposit {
				stats.TotalDeposited = stats.TotalDeposited.Add(t.Amount)
			} else {
				stats.TotalSpent = stats.TotalSpent.Add(t.TotalAmount)
			}
		case domain.TransactionStatusPending:
			stats.Pending++
		case domain.TransactionStatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// --- DepositRepository ---

type memDepositRepo struct{ s *memStore }

func (r *memDepositRepo) Create(_ context.Context, deposit *domain.Deposit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.deposits {
		if row.v.DepositReference == deposit.DepositReference {
			return fmt.Errorf("duplicate deposit reference: %s", deposit.DepositReference)
		}
	}
	r.s.deposits[deposit.ID] = &depositRow{v: *deposit}
	return nil
}

func (r *memDepositRepo) findRow(userID uuid.UUID, reference string) *depositRow {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.deposits {
		if row.v.UserID == userID && row.v.DepositReference == reference {
			return row
		}
	}
	return nil
}

func (r *memDepositRepo) GetByReference(_ context.Context, userID uuid.UUID, reference string) (*domain.Deposit, error) {
	row := r.findRow(userID, reference)
	if row == nil {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := row.v
	return &cp, nil
}

func (r *memDepositRepo) GetPendingByReferenceForUpdate(_ context.Context, tx pgx.Tx, userID uuid.UUID, reference string) (*domain.Deposit, error) {
	row := r.findRow(userID, reference)
	if row == nil {
		return nil, nil
	}
	asMemTx(tx).acquire(&row.mu)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row.v.Status != domain.DepositStatusPending {
		return nil, nil
	}
	cp := row.v
	return &cp, nil
}

func (r *memDepositRepo) MarkCompleted(_ context.Context, _ pgx.Tx, id uuid.UUID, transactionID string, confirmedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.deposits[id]
	if !ok {
		return fmt.Errorf("deposit not found: %s", id)
	}
	row.v.Status = domain.DepositStatusCompleted
	row.v.TransactionID = &transactionID
	row.v.ConfirmedAt = &confirmedAt
	return nil
}

func (r *memDepositRepo) ExistsByReference(_ context.Context, reference string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.deposits {
		if row.v.DepositReference == reference {
			return true, nil
		}
	}
	return false, nil
}

// --- BeneficiaryRepository ---

type memBeneficiaryRepo struct{ s *memStore }

func (r *memBeneficiaryRepo) Create(_ context.Context, b *domain.Beneficiary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *b
	r.s.beneficiaries[b.ID] = &cp
	return nil
}

func (r *memBeneficiaryRepo) GetActiveByID(_ context.Context, userID, id uuid.UUID) (*domain.Beneficiary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.beneficiaries[id]
	if !ok || b.UserID != userID || !b.IsActive {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBeneficiaryRepo) FindActive(_ context.Context, userID uuid.UUID, categoryCode, providerCode, accountNumber string) (*domain.Beneficiary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.beneficiaries {
		if b.UserID == userID && b.IsActive &&
			b.CategoryCode == categoryCode && b.ProviderCode == providerCode &&
			b.AccountNumber == accountNumber {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memBeneficiaryRepo) ListActive(_ context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Beneficiary
	for _, b := range r.s.beneficiaries {
		if b.UserID == userID && b.IsActive {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBeneficiaryRepo) Deactivate(_ context.Context, userID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.beneficiaries[id]
	if !ok || b.UserID != userID || !b.IsActive {
		return fmt.Errorf("beneficiary not found: %s", id)
	}
	b.IsActive = false
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// --- CatalogRepository ---

type memCatalogRepo struct{ s *memStore }

func (r *memCatalogRepo) GetCategory(_ context.Context, code string) (*domain.BillCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[code]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memCatalogRepo) GetProvider(_ context.Context, categoryCode, providerCode string) (*domain.BillProvider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.providers[categoryCode+"/"+providerCode]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memCatalogRepo) GetPlan(_ context.Context, providerID uuid.UUID, planCode string) (*domain.BillPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans[providerID.String()+"/"+planCode]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// --- CurrencyRepository ---

type memCurrencyRepo struct{ s *memStore }

func (r *memCurrencyRepo) GetByCurrency(_ context.Context, currency string) (*domain.WalletCurrency, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wc, ok := r.s.currencies[currency]
	if !ok {
		return nil, nil
	}
	return &wc, nil
}

func (r *memCurrencyRepo) List(_ context.Context) ([]domain.WalletCurrency, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.WalletCurrency, 0, len(r.s.currencies))
	for _, wc := range r.s.currencies {
		out = append(out, wc)
	}
	return out, nil
}

// --- RateCache ---

// memRateCache always misses so rate lookups hit the currency repo directly.
type memRateCache struct{}

func (memRateCache) Get(_ context.Context, _ string) (*domain.WalletCurrency, error) {
	return nil, nil
}

func (memRateCache) Set(_ context.Context, _ *domain.WalletCurrency, _ time.Duration) error {
	return nil
}

// --- NotificationRepository ---

type memNotificationRepo struct{ s *memStore }

func (r *memNotificationRepo) Create(_ context.Context, userID uuid.UUID, title, _ string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications = append(r.s.notifications, userID.String()+": "+title)
	return nil
}

func copyMetadata(m domain.Metadata) domain.Metadata {
	if m == nil {
		return nil
	}
	cp := make(domain.Metadata, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// --- Fixture helpers ---

// seedUser inserts a user with an already-hashed password/PIN and returns it.
func (s *memStore) seedUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
}

// seedWallet inserts a wallet with the given balance.
func (s *memStore) seedWallet(userID uuid.UUID, currency, balance string) *domain.Wallet {
	w := domain.NewWallet(userID, currency)
	w.Balance = decimal.RequireFromString(balance)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.ID] = &walletRow{v: *w}
	return w
}

// seedCryptoAccount inserts a crypto account with the given balance.
func (s *memStore) seedCryptoAccount(userID uuid.UUID, blockchain, currency, balance string) *domain.CryptoAccount {
	a := domain.NewCryptoAccount(userID, blockchain, currency, "0x"+uuid.NewString()[:8])
	a.Balance = decimal.RequireFromString(balance)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cryptoAccts[a.ID] = &cryptoRow{v: *a}
	return a
}

// walletBalance reads the current balance of a wallet by user and currency.
func (s *memStore) walletBalance(userID uuid.UUID, currency string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.wallets {
		if row.v.UserID == userID && row.v.Currency == currency {
			return row.v.Balance
		}
	}
	return decimal.Zero
}

// cryptoBalance reads the current balance of a crypto account.
func (s *memStore) cryptoBalance(userID uuid.UUID, currency string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.cryptoAccts {
		if row.v.UserID == userID && row.v.Currency == currency {
			return row.v.Balance
		}
	}
	return decimal.Zero
}

// transactionCount counts all transactions recorded for a user.
func (s *memStore) transactionCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.transactions {
		if row.v.UserID == userID {
			n++
		}
	}
	return n
}

// transactionStatus reads the current status of a transaction by its public ID.
func (s *memStore) transactionStatus(transactionID string) (domain.TransactionStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.transactions {
		if row.v.TransactionID == transactionID {
			return row.v.Status, true
		}
	}
	return "", false
}
