package proposal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-proposal-service/internal/domain/fraud"
)

func validProposal(t *testing.T) *PolicyProposal {
	t.Helper()

	premium, err := NewMoneyFromString("75.25", "BRL")
	require.NoError(t, err)
	insured, err := NewMoneyFromString("10000", "BRL")
	require.NoError(t, err)
	collision, err := NewMoneyFromString("5000", "BRL")
	require.NoError(t, err)

	p, err := NewPolicyProposal(
		uuid.New(), uuid.New(),
		CategoryAuto, ChannelMobile, PaymentCreditCard,
		premium, insured,
		map[string]Money{"collision": collision},
		[]string{"roadside-assistance"},
	)
	require.NoError(t, err)
	return p
}

func pendingProposal(t *testing.T) *PolicyProposal {
	t.Helper()
	p := validProposal(t)
	require.NoError(t, p.MarkPending(fraud.ClassificationRegular))
	return p
}

func TestNewPolicyProposal(t *testing.T) {
	p := validProposal(t)

	assert.Equal(t, StatusRequested, p.Status)
	assert.Nil(t, p.FraudClassification)
	assert.Nil(t, p.FinishedAt)
	assert.True(t, p.Payment.IsPending())
	assert.True(t, p.Subscription.IsPending())
}

func TestNewPolicyProposal_Validation(t *testing.T) {
	premium, _ := NewMoneyFromString("75.25", "BRL")
	insured, _ := NewMoneyFromString("10000", "BRL")
	coverages := map[string]Money{"collision": premium}

	tests := []struct {
		name string
		run  func() (*PolicyProposal, error)
		want error
	}{
		{
			name: "nil customer",
			run: func() (*PolicyProposal, error) {
				return NewPolicyProposal(uuid.Nil, uuid.New(), CategoryAuto, ChannelMobile, PaymentCreditCard, premium, insured, coverages, nil)
			},
			want: ErrInvalidCustomerID,
		},
		{
			name: "nil product",
			run: func() (*PolicyProposal, error) {
				return NewPolicyProposal(uuid.New(), uuid.Nil, CategoryAuto, ChannelMobile, PaymentCreditCard, premium, insured, coverages, nil)
			},
			want: ErrInvalidProductID,
		},
		{
			name: "unknown category",
			run: func() (*PolicyProposal, error) {
				return NewPolicyProposal(uuid.New(), uuid.New(), Category("PET"), ChannelMobile, PaymentCreditCard, premium, insured, coverages, nil)
			},
			want: ErrUnknownCategory,
		},
		{
			name: "unknown payment method",
			run: func() (*PolicyProposal, error) {
				return NewPolicyProposal(uuid.New(), uuid.New(), CategoryAuto, ChannelMobile, PaymentMethodType("CASH"), premium, insured, coverages, nil)
			},
			want: ErrUnknownPaymentMethod,
		},
		{
			name: "no coverages",
			run: func() (*PolicyProposal, error) {
				return NewPolicyProposal(uuid.New(), uuid.New(), CategoryAuto, ChannelMobile, PaymentCreditCard, premium, insured, nil, nil)
			},
			want: ErrMissingCoverages,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.run()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMarkPending(t *testing.T) {
	p := validProposal(t)

	require.NoError(t, p.MarkPending(fraud.ClassificationRegular))

	assert.Equal(t, StatusPending, p.Status)
	require.NotNil(t, p.FraudClassification)
	assert.Equal(t, fraud.ClassificationRegular, *p.FraudClassification)
	assert.Nil(t, p.FinishedAt)
}

func TestMarkPending_OnlyFromRequested(t *testing.T) {
	p := pendingProposal(t)
	assert.ErrorIs(t, p.MarkPending(fraud.ClassificationRegular), ErrInvalidStatusTransition)
}

func TestRejectFromRiskAnalysis(t *testing.T) {
	p := validProposal(t)

	require.NoError(t, p.RejectFromRiskAnalysis(fraud.ClassificationHighRisk, "insured amount exceeds limit"))

	assert.Equal(t, StatusRejected, p.Status)
	assert.Equal(t, "insured amount exceeds limit", p.RejectionReason)
	require.NotNil(t, p.FinishedAt)
	// Confirmations were never awaited
	assert.True(t, p.Payment.IsPending())
	assert.True(t, p.Subscription.IsPending())
}

func TestApprovalRequiresBothConfirmations(t *testing.T) {
	p := pendingProposal(t)

	changed, err := p.ApplyPaymentConfirmation(ConfirmationApproved, "tx-123", "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusPending, p.Status, "single approval must not approve the proposal")
	assert.Nil(t, p.FinishedAt)

	changed, err = p.ApplySubscriptionConfirmation(ConfirmationApproved, "sub-456", "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusApproved, p.Status)
	require.NotNil(t, p.FinishedAt)
}

func TestRejectionShortCircuits(t *testing.T) {
	p := pendingProposal(t)

	changed, err := p.ApplySubscriptionConfirmation(ConfirmationRejected, "sub-456", "subscription denied by underwriter")
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, StatusRejected, p.Status, "rejection must not wait for the other confirmation")
	assert.Equal(t, "subscription denied by underwriter", p.RejectionReason)
	assert.True(t, p.Payment.IsPending())
	require.NotNil(t, p.FinishedAt)
}

func TestRejectionWithoutReasonGetsDefault(t *testing.T) {
	p := pendingProposal(t)

	_, err := p.ApplyPaymentConfirmation(ConfirmationRejected, "tx-1", "")
	require.NoError(t, err)
	assert.Equal(t, "payment not confirmed", p.RejectionReason)
}

func TestRepeatedIdenticalConfirmationIsNoOp(t *testing.T) {
	p := pendingProposal(t)

	changed, err := p.ApplyPaymentConfirmation(ConfirmationApproved, "tx-1", "")
	require.NoError(t, err)
	assert.True(t, changed)
	version := p.UpdatedAt

	changed, err = p.ApplyPaymentConfirmation(ConfirmationApproved, "tx-1", "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, version, p.UpdatedAt)
}

func TestConflictingConfirmationIsRejected(t *testing.T) {
	p := pendingProposal(t)

	_, err := p.ApplyPaymentConfirmation(ConfirmationApproved, "tx-1", "")
	require.NoError(t, err)

	_, err = p.ApplyPaymentConfirmation(ConfirmationRejected, "tx-1", "chargeback")
	assert.ErrorIs(t, err, ErrConfirmationConflict)
	assert.Equal(t, ConfirmationApproved, p.Payment.Status, "conflicting outcome must not be applied")
	assert.Equal(t, StatusPending, p.Status)
}

func TestConfirmationBeforePendingIsInvalid(t *testing.T) {
	p := validProposal(t)

	_, err := p.ApplyPaymentConfirmation(ConfirmationApproved, "tx-1", "")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestCancel(t *testing.T) {
	t.Run("from requested", func(t *testing.T) {
		p := validProposal(t)
		require.NoError(t, p.Cancel("customer gave up"))
		assert.Equal(t, StatusCanceled, p.Status)
		assert.Equal(t, "customer gave up", p.RejectionReason)
		require.NotNil(t, p.FinishedAt)
	})

	t.Run("from pending", func(t *testing.T) {
		p := pendingProposal(t)
		require.NoError(t, p.Cancel("changed product"))
		assert.Equal(t, StatusCanceled, p.Status)
	})
}

func TestCancelConflictVariants(t *testing.T) {
	approved := pendingProposal(t)
	_, err := approved.ApplyPaymentConfirmation(ConfirmationApproved, "tx-1", "")
	require.NoError(t, err)
	_, err = approved.ApplySubscriptionConfirmation(ConfirmationApproved, "sub-1", "")
	require.NoError(t, err)

	rejected := pendingProposal(t)
	_, err = rejected.ApplyPaymentConfirmation(ConfirmationRejected, "tx-2", "card declined")
	require.NoError(t, err)

	canceled := validProposal(t)
	require.NoError(t, canceled.Cancel("first cancel"))

	tests := []struct {
		name    string
		p       *PolicyProposal
		status  PolicyStatus
		message string
	}{
		{"approved", approved, StatusApproved, "proposal in status APPROVED cannot be canceled"},
		{"rejected", rejected, StatusRejected, "proposal was already rejected and cannot be canceled"},
		{"canceled", canceled, StatusCanceled, "proposal is already canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Cancel("too late")

			var conflict *CancellationConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.status, conflict.Status)
			assert.Equal(t, tt.message, conflict.Error())
			assert.Equal(t, tt.status, tt.p.Status, "status must be untouched")
		})
	}
}

func TestTerminalImmutability(t *testing.T) {
	p := pendingProposal(t)
	_, err := p.ApplySubscriptionConfirmation(ConfirmationRejected, "sub-1", "denied")
	require.NoError(t, err)
	finishedAt := *p.FinishedAt

	_, err = p.ApplyPaymentConfirmation(ConfirmationApproved, "tx-1", "")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	assert.Equal(t, StatusRejected, p.Status)
	assert.True(t, p.Payment.IsPending())
	assert.Equal(t, finishedAt, *p.FinishedAt)
}

func TestMarkOutcomeEmitted(t *testing.T) {
	p := validProposal(t)
	assert.ErrorIs(t, p.MarkOutcomeEmitted(), ErrOutcomeNotReached)

	require.NoError(t, p.Cancel("done"))
	require.NoError(t, p.MarkOutcomeEmitted())
	assert.True(t, p.OutcomeEmitted)
}

func TestMoney(t *testing.T) {
	_, err := NewMoney(decimal.NewFromInt(-1), "BRL")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewMoney(decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, ErrMissingCurrency)

	_, err = NewMoneyFromString("not-a-number", "BRL")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	m, err := NewMoneyFromString("150.50", "BRL")
	require.NoError(t, err)
	assert.Equal(t, "150.5 BRL", m.String())
	assert.True(t, m.GreaterThan(decimal.NewFromInt(100)))
	assert.False(t, m.IsZero())
}

func TestParseConfirmationStatus(t *testing.T) {
	_, err := ParseConfirmationStatus("PENDING")
	assert.ErrorIs(t, err, ErrInvalidConfirmationOutcome)

	got, err := ParseConfirmationStatus("APPROVED")
	require.NoError(t, err)
	assert.Equal(t, ConfirmationApproved, got)
}
