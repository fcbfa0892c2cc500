package auth

import (
	"fmt"
	"strings"
)

// State は認可パイプラインにおけるリクエストの状態です。
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateAuthorized
	StateDispatched
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateAuthorized:
		return "authorized"
	case StateDispatched:
		return "dispatched"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Decision はパイプラインの評価結果です。
// State が StateRejected のときは Err に理由が入ります。
type Decision struct {
	State     State
	Principal *Principal
	Err       error
}

// Allowed はハンドラーへ進めてよいかを返します。
func (d Decision) Allowed() bool {
	return d.State == StateAuthorized && d.Err == nil
}

func reject(principal *Principal, err error) Decision {
	return Decision{State: StateRejected, Principal: principal, Err: err}
}

// Pipeline はトークン検証と認可判定を順に実行します。
type Pipeline struct {
	validator *Validator
	gate      *Gate
}

// NewPipeline は Pipeline を作成します。
func NewPipeline(validator *Validator, gate *Gate) *Pipeline {
	return &Pipeline{validator: validator, gate: gate}
}

// Gate は判定に使う Gate を返します。
func (p *Pipeline) Gate() *Gate {
	return p.gate
}

// Evaluate は Authorization ヘッダーとルートが宣言した操作から判定します。
// required はリクエスト内容ではなくルート定義から渡してください。
func (p *Pipeline) Evaluate(header string, required Permission) Decision {
	raw, err := ExtractBearer(header)
	if err != nil {
		return reject(nil, err)
	}

	principal, err := p.validator.Validate(raw)
	if err != nil {
		return reject(nil, err)
	}
	// ここまでで StateAuthenticated
	if err := p.gate.Authorize(principal.Role, required); err != nil {
		return reject(principal, err)
	}

	return Decision{State: StateAuthorized, Principal: principal}
}

// ExtractBearer は "Bearer <token>" 形式のヘッダーからトークンを取り出します。
func ExtractBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: expected 'Bearer <token>'", ErrMalformedToken)
	}
	if len(parts) == 1 {
		return "", ErrMissingToken
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
