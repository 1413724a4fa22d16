package transaction_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tripwise/internal/kv/memory"
	"github.com/MrJamesThe3rd/tripwise/internal/transaction"
	"github.com/MrJamesThe3rd/tripwise/internal/transaction/store"
)

func TestService_Append(t *testing.T) {
	type args struct {
		tx transaction.Transaction
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *transaction.MockRepository)
		wantErr   bool
	}

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []testCase{
		{
			name: "Success",
			args: args{tx: transaction.Transaction{Type: transaction.TypePolicyCreated, PolicyID: "POL-1", Timestamp: at}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					ListTransactions(gomock.Any()).
					Return([]*transaction.Transaction{{Type: transaction.TypePolicyCreated, PolicyID: "POL-0"}}, nil)
				m.EXPECT().
					SaveTransactions(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, txs []*transaction.Transaction) error {
						require.Len(t, txs, 2)
						assert.Equal(t, "POL-1", txs[0].PolicyID)
						assert.Equal(t, "Policy POL-1 created", txs[0].Description)
						assert.Equal(t, "POL-0", txs[1].PolicyID)

						return nil
					})
			},
		},
		{
			name: "LoadError",
			args: args{tx: transaction.Transaction{Type: transaction.TypePolicyUpdated, PolicyID: "POL-1"}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					ListTransactions(gomock.Any()).
					Return(nil, errors.New("store down"))
			},
			wantErr: true,
		},
		{
			name: "SaveError",
			args: args{tx: transaction.Transaction{Type: transaction.TypePolicyCancelled, PolicyID: "POL-1"}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().ListTransactions(gomock.Any()).Return(nil, nil)
				m.EXPECT().SaveTransactions(gomock.Any(), gomock.Any()).Return(errors.New("quota exceeded"))
			},
			wantErr: true,
		},
		{
			name:    "MissingPolicyID",
			args:    args{tx: transaction.Transaction{Type: transaction.TypePolicyCreated}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo)
			err := svc.Append(context.Background(), tt.args.tx)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_AppendCapsLog(t *testing.T) {
	ctx := context.Background()
	svc := transaction.NewService(store.New(memory.New()))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range transaction.MaxEntries + 1 {
		id := fmt.Sprintf("POL-%08d", i)
		require.NoError(t, svc.Record(ctx, transaction.TypePolicyCreated, id, start.Add(time.Duration(i)*time.Minute)))
	}

	txs, err := svc.List(ctx, transaction.ListFilter{})
	require.NoError(t, err)

	assert.Len(t, txs, transaction.MaxEntries)
	assert.Equal(t, fmt.Sprintf("POL-%08d", transaction.MaxEntries), txs[0].PolicyID)
	assert.Equal(t, "POL-00000001", txs[len(txs)-1].PolicyID)

	for _, tx := range txs {
		assert.NotEqual(t, "POL-00000000", tx.PolicyID)
	}
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc := transaction.NewService(store.New(memory.New()))

	day := func(d int) time.Time { return time.Date(2025, 6, d, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.Record(ctx, transaction.TypePolicyCreated, "POL-A", day(1)))
	require.NoError(t, svc.Record(ctx, transaction.TypePolicyCreated, "POL-B", day(2)))
	require.NoError(t, svc.Record(ctx, transaction.TypePolicyCancelled, "POL-A", day(3)))

	byPolicy, err := svc.ListByPolicy(ctx, "POL-A")
	require.NoError(t, err)
	require.Len(t, byPolicy, 2)
	assert.Equal(t, transaction.TypePolicyCancelled, byPolicy[0].Type)
	assert.Equal(t, "Policy POL-A cancelled", byPolicy[0].Description)

	start, end := day(2), day(3)
	ranged, err := svc.List(ctx, transaction.ListFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}
