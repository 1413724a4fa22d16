package document_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tripwise/internal/document"
	"github.com/MrJamesThe3rd/tripwise/internal/kv/memory"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
)

func TestService_Attach(t *testing.T) {
	type args struct {
		mediaType string
		data      []byte
	}

	type testCase struct {
		name       string
		args       args
		wantReason validation.Reason
	}

	tests := []testCase{
		{
			name: "Small JPEG",
			args: args{mediaType: "image/jpeg", data: []byte{0xff, 0xd8, 0xff}},
		},
		{
			name: "Exactly the size limit",
			args: args{mediaType: "image/jpeg", data: make([]byte, validation.MaxDocumentSize)},
		},
		{
			name:       "One byte over the limit",
			args:       args{mediaType: "image/jpeg", data: make([]byte, validation.MaxDocumentSize+1)},
			wantReason: validation.ReasonDocumentTooLarge,
		},
		{
			name:       "PNG",
			args:       args{mediaType: "image/png", data: []byte{0x89, 0x50}},
			wantReason: validation.ReasonDocumentMediaType,
		},
		{
			name:       "Empty upload",
			args:       args{mediaType: "image/jpeg"},
			wantReason: validation.ReasonDocumentMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := document.NewService(document.NewKVStore(memory.New()))

			ref, err := svc.Attach(ctx, "passport.jpg", tt.args.mediaType, tt.args.data)

			if tt.wantReason != validation.Valid {
				var errs validation.Errors
				require.ErrorAs(t, err, &errs)
				assert.Equal(t, tt.wantReason, errs.Reason("idDocument"))
				assert.Nil(t, ref)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "passport.jpg", ref.Name)
			assert.Equal(t, int64(len(tt.args.data)), ref.Size)
			assert.NotEmpty(t, ref.Key)

			got, err := svc.Open(ctx, ref)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.args.data, got))
		})
	}
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	svc := document.NewService(document.NewKVStore(memory.New()))

	ref, err := svc.Attach(ctx, "id.jpg", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, ref))

	_, err = svc.Open(ctx, ref)
	assert.ErrorIs(t, err, document.ErrNotFound)

	assert.NoError(t, svc.Remove(ctx, ref))
	assert.NoError(t, svc.Remove(ctx, nil))

	_, err = svc.Open(ctx, nil)
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestService_StoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := document.NewMockStore(ctrl)
	svc := document.NewService(store)
	ctx := context.Background()

	store.EXPECT().
		Put(gomock.Any(), gomock.Any(), []byte("jpeg"), "image/jpeg").
		Return(errors.New("bucket unavailable"))

	_, err := svc.Attach(ctx, "id.jpg", "image/jpeg", []byte("jpeg"))
	require.Error(t, err)
	assert.NotErrorAs(t, err, new(validation.Errors))

	store.EXPECT().Get(gomock.Any(), "k.jpg").Return(nil, errors.New("timeout"))

	_, err = svc.Open(ctx, &policy.DocumentRef{Key: "k.jpg"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, document.ErrNotFound)

	store.EXPECT().Delete(gomock.Any(), "k.jpg").Return(document.ErrNotFound)
	assert.NoError(t, svc.Remove(ctx, &policy.DocumentRef{Key: "k.jpg"}))
}
