package settings

import (
	"context"
	"testing"

	"github.com/takapay/wallet-service/internal/domain"
	"github.com/takapay/wallet-service/internal/store"
)

type readerStub struct {
	values  map[string]string
	methods map[string][]domain.PaymentMethod
	calls   int
}

func (r *readerStub) GetSetting(ctx context.Context, key string) (string, error) {
	r.calls++
	value, ok := r.values[key]
	if !ok {
		return "", store.ErrSettingNotFound
	}
	return value, nil
}

func (r *readerStub) FindPaymentMethods(ctx context.Context, kind string) ([]domain.PaymentMethod, error) {
	return r.methods[kind], nil
}

func (r *readerStub) FindForceJoinChannels(ctx context.Context) ([]domain.Channel, error) {
	return nil, nil
}

func TestProvider_StoreValueWinsOverDefault(t *testing.T) {
	reader := &readerStub{values: map[string]string{domain.SettingMinWithdraw: "7500"}}
	provider := NewProvider(reader, nil, "", 0, Defaults{MinWithdraw: 5000})

	if got := provider.MinWithdraw(context.Background()); got != 7500 {
		t.Fatalf("expected store value 7500, got %d", got)
	}
}

func TestProvider_MissingKeyFallsBackToDefault(t *testing.T) {
	reader := &readerStub{values: map[string]string{}}
	provider := NewProvider(reader, nil, "", 0, Defaults{MaxWithdraw: 100000})

	if got := provider.MaxWithdraw(context.Background()); got != 100000 {
		t.Fatalf("expected default 100000, got %d", got)
	}
}

func TestProvider_InvalidNumericValueFallsBackToDefault(t *testing.T) {
	reader := &readerStub{values: map[string]string{domain.SettingReferralBonus: "fifty"}}
	provider := NewProvider(reader, nil, "", 0, Defaults{ReferralBonus: 500})

	if got := provider.ReferralBonus(context.Background()); got != 500 {
		t.Fatalf("expected default 500 for an unparseable value, got %d", got)
	}
}

func TestProvider_SnapshotAssemblesFullView(t *testing.T) {
	reader := &readerStub{
		values: map[string]string{
			domain.SettingMinWithdraw: "1000",
			domain.SettingMaxWithdraw: "20000",
		},
		methods: map[string][]domain.PaymentMethod{
			domain.MethodKindWithdraw: {{ID: "bkash", Name: "bKash", Kind: domain.MethodKindWithdraw, IsActive: true}},
			domain.MethodKindDeposit:  {{ID: "nagad", Name: "Nagad", Kind: domain.MethodKindDeposit, IsActive: true}},
		},
	}
	provider := NewProvider(reader, nil, "", 0, Defaults{WelcomeBonus: 20})

	snapshot, err := provider.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("expected snapshot to succeed, got %v", err)
	}
	if snapshot.MinWithdraw != 1000 || snapshot.MaxWithdraw != 20000 {
		t.Fatalf("unexpected bounds %d/%d", snapshot.MinWithdraw, snapshot.MaxWithdraw)
	}
	if snapshot.WelcomeBonus != 20 {
		t.Fatalf("expected default welcome bonus in snapshot, got %d", snapshot.WelcomeBonus)
	}
	if len(snapshot.WithdrawMethods) != 1 || snapshot.WithdrawMethods[0].ID != "bkash" {
		t.Fatalf("unexpected withdraw methods %+v", snapshot.WithdrawMethods)
	}
	if len(snapshot.DepositMethods) != 1 || snapshot.DepositMethods[0].ID != "nagad" {
		t.Fatalf("unexpected deposit methods %+v", snapshot.DepositMethods)
	}
}
