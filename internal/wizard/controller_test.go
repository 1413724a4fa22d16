package wizard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tripwise/internal/document"
	"github.com/MrJamesThe3rd/tripwise/internal/kv"
	"github.com/MrJamesThe3rd/tripwise/internal/kv/memory"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	policystore "github.com/MrJamesThe3rd/tripwise/internal/policy/store"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
	"github.com/MrJamesThe3rd/tripwise/internal/progress"
	"github.com/MrJamesThe3rd/tripwise/internal/transaction"
	txstore "github.com/MrJamesThe3rd/tripwise/internal/transaction/store"
	"github.com/MrJamesThe3rd/tripwise/internal/wizard"
)

type loggedIn bool

func (l loggedIn) IsAuthenticated(context.Context) bool { return bool(l) }

type env struct {
	kv       *memory.Store
	policies *policy.Service
	docs     *document.Service
	journal  *transaction.Service
}

func newEnv() *env {
	store := memory.New()
	journal := transaction.NewService(txstore.New(store))

	return &env{
		kv:       store,
		policies: policy.NewService(policystore.New(store), journal),
		docs:     document.NewService(document.NewKVStore(store)),
		journal:  journal,
	}
}

func (e *env) controller() *wizard.Controller {
	return wizard.NewController(
		loggedIn(true),
		e.policies,
		e.docs,
		progress.New[wizard.Draft](e.kv),
		premium.NewCalculator(premium.DefaultTable()),
	)
}

func walk(t *testing.T, ctx context.Context, c *wizard.Controller) {
	t.Helper()

	for _, in := range validInputs() {
		_, err := c.Next(ctx, in)
		require.NoError(t, err, "step %s", in.Step())
	}

	_, err := c.AttachDocument(ctx, "id.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
}

func checkout() wizard.Checkout {
	return wizard.Checkout{Payment: policy.Payment{Method: policy.PaymentCard}, Consents: allConsents()}
}

func TestController_RequiresLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authn := wizard.NewMockAuthenticator(ctrl)
	authn.EXPECT().IsAuthenticated(gomock.Any()).Return(false).Times(2)

	e := newEnv()
	c := wizard.NewController(authn, e.policies, e.docs, progress.New[wizard.Draft](e.kv), premium.NewCalculator(premium.DefaultTable()))

	_, err := c.Start(context.Background())
	assert.ErrorIs(t, err, wizard.ErrUnauthenticated)

	_, err = c.Edit(context.Background(), "POL-00000001")
	assert.ErrorIs(t, err, wizard.ErrUnauthenticated)
}

func TestController_ChecksLoginOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authn := wizard.NewMockAuthenticator(ctrl)
	authn.EXPECT().IsAuthenticated(gomock.Any()).Return(true).Times(1)

	e := newEnv()
	c := wizard.NewController(authn, e.policies, e.docs, progress.New[wizard.Draft](e.kv), premium.NewCalculator(premium.DefaultTable()))
	ctx := context.Background()

	_, err := c.Start(ctx)
	require.NoError(t, err)

	_, err = c.Next(ctx, wizard.Contact{Email: "a@b.cz", Phone: "+420 123 456 789"})
	require.NoError(t, err)
}

func TestController_ResumesSavedProgress(t *testing.T) {
	ctx := context.Background()
	e := newEnv()

	first := e.controller()
	_, err := first.Next(ctx, wizard.Contact{Email: "jan@example.com", Phone: "+420 123 456 789"})
	require.NoError(t, err)

	second := e.controller()

	s, err := second.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepPersonal, s.Step)
	assert.Equal(t, "jan@example.com", s.Draft.PersonalInfo.Email)
}

func TestController_SubmitCreatesPolicyAndClearsProgress(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	c := e.controller()

	walk(t, ctx, c)

	q, ok := c.Quote()
	require.True(t, ok)
	assert.Equal(t, "507.00 CZK", q.String())

	p, err := c.Submit(ctx, checkout())
	require.NoError(t, err)

	assert.Equal(t, policy.StatusActive, p.Status)
	assert.Equal(t, "jan@example.com", p.PersonalInfo.Email)
	require.NotNil(t, p.IDDocument)

	_, ok, err = e.kv.Get(ctx, kv.KeyFormProgress)
	require.NoError(t, err)
	assert.False(t, ok)

	s, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepContact, s.Step)
	assert.Empty(t, s.Draft.PersonalInfo.Email)

	txs, err := e.journal.ListByPolicy(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, transaction.TypePolicyCreated, txs[0].Type)
}

func TestController_SubmitRejectsMissingConsent(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	c := e.controller()

	walk(t, ctx, c)

	in := checkout()
	in.Consents.IPID = false

	_, err := c.Submit(ctx, in)
	errs, ok := wizard.FieldErrors(err)
	require.True(t, ok)
	assert.True(t, errs.Has("consents.ipid"))

	s, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCheckout, s.Step)

	all, err := e.policies.List(ctx, policy.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestController_SubmitKeepsDraftWhenAssemblyFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	e := newEnv()
	assembler := wizard.NewMockAssembler(ctrl)
	assembler.EXPECT().Assemble(gomock.Any(), gomock.Any(), "").Return(nil, errors.New("store down"))

	c := wizard.NewController(loggedIn(true), assembler, e.docs, progress.New[wizard.Draft](e.kv), premium.NewCalculator(premium.DefaultTable()))
	ctx := context.Background()

	walk(t, ctx, c)

	_, err := c.Submit(ctx, checkout())
	require.Error(t, err)

	s, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCheckout, s.Step)
	assert.NotNil(t, s.Draft.IDDocument)

	_, ok, err := e.kv.Get(ctx, kv.KeyFormProgress)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestController_EditResubmitsSamePolicy(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	c := e.controller()

	walk(t, ctx, c)

	created, err := c.Submit(ctx, checkout())
	require.NoError(t, err)

	createdAt := created.CreatedAt

	s, err := c.Edit(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepContact, s.Step)
	assert.Equal(t, created.ID, s.Draft.EditingID)
	assert.Equal(t, "jan@example.com", s.Draft.PersonalInfo.Email)

	_, err = c.JumpTo(ctx, wizard.StepTrip)
	require.NoError(t, err)

	_, err = c.Next(ctx, wizard.Trip{
		Destination:   premium.ZoneEU,
		DepartureDate: "2025-07-01",
		ReturnDate:    "2025-07-08",
		Adults:        2,
		Children:      1,
	})
	require.NoError(t, err)

	_, err = c.JumpTo(ctx, wizard.StepCheckout)
	require.NoError(t, err)

	q, ok := c.Quote()
	require.True(t, ok)
	assert.Equal(t, "50.05 EUR", q.String())

	updated, err := c.Submit(ctx, checkout())
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, createdAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	assert.Equal(t, premium.ZoneEU, updated.TripInfo.Destination)

	all, err := e.policies.List(ctx, policy.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// The original upload is still attached, so it must still be readable.
	_, err = e.docs.Open(ctx, updated.IDDocument)
	assert.NoError(t, err)
}

func TestController_EditRejectsCancelled(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	c := e.controller()

	walk(t, ctx, c)

	p, err := c.Submit(ctx, checkout())
	require.NoError(t, err)

	_, err = e.policies.Cancel(ctx, p.ID)
	require.NoError(t, err)

	_, err = c.Edit(ctx, p.ID)
	assert.ErrorIs(t, err, policy.ErrCancelled)

	_, err = c.Edit(ctx, "POL-missing")
	assert.ErrorIs(t, err, policy.ErrNotFound)
}

func TestController_ReplacingDocumentRemovesOldBlob(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	c := e.controller()

	walk(t, ctx, c)

	s, err := c.State(ctx)
	require.NoError(t, err)

	old := s.Draft.IDDocument
	require.NotNil(t, old)

	s, err = c.AttachDocument(ctx, "new.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff, 0xdb})
	require.NoError(t, err)
	assert.NotEqual(t, old.Key, s.Draft.IDDocument.Key)

	_, err = e.docs.Open(ctx, old)
	assert.ErrorIs(t, err, document.ErrNotFound)

	_, err = c.AttachDocument(ctx, "scan.png", "image/png", []byte{0x89})
	require.Error(t, err)

	s, err = c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new.jpg", s.Draft.IDDocument.Name)

	s, err = c.DetachDocument(ctx)
	require.NoError(t, err)
	assert.Nil(t, s.Draft.IDDocument)
}

func TestController_Abandon(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	c := e.controller()

	walk(t, ctx, c)

	require.NoError(t, c.Abandon(ctx))

	s, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepContact, s.Step)
	assert.Nil(t, s.Draft.IDDocument)

	_, ok, err := e.kv.Get(ctx, kv.KeyFormProgress)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestController_ResumeRestoresIdenticalState(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	first := e.controller()

	for _, in := range validInputs()[:3] {
		_, err := first.Next(ctx, in)
		require.NoError(t, err, "step %s", in.Step())
	}

	_, err := first.AttachDocument(ctx, "id.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)

	want, err := first.State(ctx)
	require.NoError(t, err)
	require.Equal(t, wizard.StepTripType, want.Step)
	require.NotNil(t, want.Draft.IDDocument)

	got, err := e.controller().Start(ctx)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestController_ResumeRestoresEditDraft(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	c := e.controller()

	walk(t, ctx, c)

	p, err := c.Submit(ctx, checkout())
	require.NoError(t, err)

	editor := e.controller()

	want, err := editor.Edit(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, want.Draft.EditingID)
	require.False(t, want.Draft.Consents.Timestamp.IsZero())

	want, err = editor.Next(ctx, want.Draft.Input(wizard.StepContact))
	require.NoError(t, err)

	got, err := e.controller().Start(ctx)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, p.Application(), got.Draft.Application())
}
