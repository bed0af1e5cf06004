package domain

// ServiceAccount は、キーファイルのうちログやヘルスチェックに使える項目です
// 秘密鍵は保持しません
type ServiceAccount struct {
	ClientEmail  string
	ProjectID    string
	PrivateKeyID string
}

// KeyIDPrefix は、ログ出力用にキーIDの先頭8文字を返します
func (a ServiceAccount) KeyIDPrefix() string {
	return Truncate(a.PrivateKeyID, 8)
}
