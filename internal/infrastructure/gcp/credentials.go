// Package gcp は、サービスアカウントのキーファイルから Vertex AI 用のアクセストークンを取得します
package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"ecomindsx/internal/domain"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CloudPlatformScope は、Vertex AI 呼び出しに必要なスコープです
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

var (
	errNotServiceAccount = errors.New("サービスアカウントのキーではありません")
	errMissingField      = errors.New("キーファイルに必須項目がありません")
)

// CredentialProvider は、キーファイルからアクセストークンを取得します
// トークンはキャッシュせず、呼び出しごとに取得します
type CredentialProvider struct {
	keyFile    string
	tokenURL   string
	timeout    time.Duration
	httpClient *http.Client
}

// Option は、CredentialProvider の設定を変更します
type Option func(*CredentialProvider)

// WithTokenURL は、キーファイルの token_uri を上書きします
func WithTokenURL(url string) Option {
	return func(p *CredentialProvider) { p.tokenURL = url }
}

// WithTimeout は、トークン取得のタイムアウトを設定します
func WithTimeout(d time.Duration) Option {
	return func(p *CredentialProvider) { p.timeout = d }
}

// WithHTTPClient は、トークン取得に使う HTTP クライアントを設定します
// クライアントにタイムアウトがない場合は WithTimeout の値が適用されます
func WithHTTPClient(c *http.Client) Option {
	return func(p *CredentialProvider) { p.httpClient = c }
}

// NewCredentialProvider は、新しい CredentialProvider を作成します
func NewCredentialProvider(keyFile string, opts ...Option) *CredentialProvider {
	p := &CredentialProvider{
		keyFile: keyFile,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.httpClient = boundedClient(p.httpClient, p.timeout)
	return p
}

// boundedClient は、トークン交換の POST にタイムアウトを適用したクライアントを返します
// JWT のトークンソースはリクエストにコンテキストを付けません
func boundedClient(c *http.Client, timeout time.Duration) *http.Client {
	if c == nil {
		return &http.Client{Timeout: timeout}
	}
	if c.Timeout > 0 || timeout <= 0 {
		return c
	}
	bounded := *c
	bounded.Timeout = timeout
	return &bounded
}

// AccessToken は、Vertex AI 用のベアラートークンを取得します
func (p *CredentialProvider) AccessToken(ctx context.Context) (string, error) {
	data, key, err := p.load()
	if err != nil {
		return "", &domain.AuthError{Err: err}
	}

	if p.tokenURL != "" {
		data, err = sjson.SetBytes(data, "token_uri", p.tokenURL)
		if err != nil {
			return "", &domain.AuthError{Err: fmt.Errorf("token_uri の上書きに失敗しました: %w", err)}
		}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	creds, err := google.CredentialsFromJSON(ctx, data, CloudPlatformScope)
	if err != nil {
		return "", &domain.AuthError{Err: fmt.Errorf("キーファイルの解析に失敗しました: %w", err)}
	}

	tok, err := creds.TokenSource.Token()
	if err != nil {
		log.WithFields(log.Fields{
			"client_email": key.ClientEmail,
			"key_id":       key.KeyIDPrefix(),
		}).Warnf("アクセストークンの取得に失敗しました: %v", err)
		return "", &domain.AuthError{Err: fmt.Errorf("アクセストークンの取得に失敗しました: %w", err)}
	}

	log.WithField("client_email", key.ClientEmail).Debug("アクセストークンを取得しました")
	return tok.AccessToken, nil
}

// Account は、キーファイルのメタデータを返します
func (p *CredentialProvider) Account() (domain.ServiceAccount, error) {
	_, key, err := p.load()
	if err != nil {
		return domain.ServiceAccount{}, &domain.AuthError{Err: err}
	}
	return key, nil
}

// load は、キーファイルを読み込んでサービスアカウントであることを確認します
func (p *CredentialProvider) load() ([]byte, domain.ServiceAccount, error) {
	data, err := os.ReadFile(p.keyFile)
	if err != nil {
		return nil, domain.ServiceAccount{}, fmt.Errorf("キーファイル %s を読み込めません: %w", p.keyFile, err)
	}
	key, err := ParseServiceAccountKey(data)
	if err != nil {
		return nil, domain.ServiceAccount{}, err
	}
	return data, key, nil
}

// ParseServiceAccountKey は、キーファイルの内容を検証してメタデータを返します
func ParseServiceAccountKey(data []byte) (domain.ServiceAccount, error) {
	if !gjson.ValidBytes(data) {
		return domain.ServiceAccount{}, fmt.Errorf("キーファイルが有効なJSONではありません")
	}
	if t := gjson.GetBytes(data, "type").String(); t != "service_account" {
		return domain.ServiceAccount{}, fmt.Errorf("%w: type=%q", errNotServiceAccount, t)
	}

	key := domain.ServiceAccount{
		ClientEmail:  gjson.GetBytes(data, "client_email").String(),
		ProjectID:    gjson.GetBytes(data, "project_id").String(),
		PrivateKeyID: gjson.GetBytes(data, "private_key_id").String(),
	}
	if key.ClientEmail == "" {
		return domain.ServiceAccount{}, fmt.Errorf("%w: client_email", errMissingField)
	}
	if gjson.GetBytes(data, "private_key").String() == "" {
		return domain.ServiceAccount{}, fmt.Errorf("%w: private_key", errMissingField)
	}
	return key, nil
}
