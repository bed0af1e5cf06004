package main

import (
	"context"
	"errors"
	"testing"

	"ecomindsx/internal/domain"
)

type stubAccounts struct {
	account domain.ServiceAccount
	err     error
}

func (s stubAccounts) AccessToken(ctx context.Context) (string, error) {
	return "", s.err
}

func (s stubAccounts) Account() (domain.ServiceAccount, error) {
	return s.account, s.err
}

func TestResolveProjectID(t *testing.T) {
	keyErr := &domain.AuthError{Err: errors.New("キーファイルが見つかりません")}

	tests := []struct {
		name       string
		configured string
		accounts   stubAccounts
		want       string
		wantErr    bool
	}{
		{name: "設定値を優先", configured: "configured", accounts: stubAccounts{account: domain.ServiceAccount{ProjectID: "from-key"}}, want: "configured"},
		{name: "キーファイルから補完", accounts: stubAccounts{account: domain.ServiceAccount{ProjectID: "from-key"}}, want: "from-key"},
		{name: "キーファイルなしでも設定値で起動", configured: "configured", accounts: stubAccounts{err: keyErr}, want: "configured"},
		{name: "キーファイルも設定値もない", accounts: stubAccounts{err: keyErr}, wantErr: true},
		{name: "project_idがない", accounts: stubAccounts{account: domain.ServiceAccount{ClientEmail: "relay@example.com"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := resolveProjectID(tt.configured, tt.accounts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("エラーが期待されましたが、nil が返されました")
				}
				return
			}
			if err != nil {
				t.Fatalf("予期しないエラーが発生しました: %v", err)
			}
			if got != tt.want {
				t.Errorf("期待されるプロジェクトID: %s, 実際: %s", tt.want, got)
			}
		})
	}
}
