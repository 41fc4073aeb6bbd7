package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"rebalancer/types"

	"github.com/jackc/pgx/v5"
)

type mockAssetsRepository struct {
	sqlError error
}

func TestDatabase_GetAssetByTicker(t *testing.T) {
	type args struct {
		ticker string
	}
	tests := []struct {
		name    string
		args    args
		want    *types.Asset
		sqlErr  error
		wantErr error
	}{
		{"should throw ErrAssetNotFound", args{"AAPL"}, nil, pgx.ErrNoRows, ErrAssetNotFound},
		{"should pass through driver errors", args{"AAPL"}, nil, errors.New("conn reset"), nil},
		{"should return asset", args{"AAPL"}, &types.Asset{Ticker: "AAPL", Id: 1, Type: types.AssetTypeStock}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{
				assets: mockAssetsRepository{
					sqlError: tt.sqlErr,
				},
			}
			got, err := db.GetAssetByTicker(context.Background(), tt.args.ticker)
			if tt.sqlErr != nil {
				if err == nil {
					t.Fatalf("GetAssetByTicker() error = nil, want %v", tt.sqlErr)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("GetAssetByTicker() error = %v, wantErr %v", err, tt.wantErr)
				}
				if tt.wantErr == nil && errors.Is(err, ErrAssetNotFound) {
					t.Errorf("GetAssetByTicker() error = %v, should not be ErrAssetNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetAssetByTicker() unexpected error = %v", err)
			}
			if got.Ticker != tt.want.Ticker {
				t.Errorf("GetAssetByTicker() ticker = %v, want %v", got.Ticker, tt.want.Ticker)
			}
			if got.Id != tt.want.Id {
				t.Errorf("GetAssetByTicker() id = %v, want %v", got.Id, tt.want.Id)
			}
			if got.Type != tt.want.Type {
				t.Errorf("GetAssetByTicker() type = %v, want %v", got.Type, tt.want.Type)
			}
			if got.CreatedAt.IsZero() {
				t.Errorf("GetAssetByTicker() createdAt not set")
			}
		})
	}
}

func (m mockAssetsRepository) GetAssetByTicker(_ context.Context, ticker string) (assetRow, error) {
	if m.sqlError != nil {
		return assetRow{}, m.sqlError
	}
	curTime := time.UnixMilli(1)
	return assetRow{
		ID:         1,
		Ticker:     ticker,
		Name:       "Apple",
		Type:       string(types.AssetTypeStock),
		CreatedAt:  &curTime,
		ModifiedAt: &curTime,
	}, nil
}
