package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/Tirvu/api-parceiros/internal/config"
	"github.com/Tirvu/api-parceiros/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carregam a identidade usada em todas as decisões de acesso.
type Claims struct {
	UserID uint        `json:"id"`
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	jwt.RegisteredClaims
}

// Emissor assina e valida access tokens. Com chave RSA usa RS256 + kid
// (publicado no JWKS); sem ela, HS256 com o segredo compartilhado.
type Emissor struct {
	metodo   jwt.SigningMethod
	segredo  []byte
	priv     *rsa.PrivateKey
	kid      string
	issuer   string
	audience string
	ttl      time.Duration
	agora    func() time.Time
}

func NovoEmissorHMAC(segredo []byte, ttl time.Duration) *Emissor {
	return &Emissor{metodo: jwt.SigningMethodHS256, segredo: segredo, ttl: ttl, agora: time.Now}
}

func NovoEmissorRSA(priv *rsa.PrivateKey, kid, issuer, audience string, ttl time.Duration) *Emissor {
	return &Emissor{
		metodo:   jwt.SigningMethodRS256,
		priv:     priv,
		kid:      kid,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		agora:    time.Now,
	}
}

// NovoEmissor escolhe RS256 quando AUTH_RSA_PRIVATE_PATH está definido.
func NovoEmissor(cfg config.AuthConfig) (*Emissor, error) {
	if cfg.RSAPrivatePath != "" {
		priv, err := carregarChaveRSA(cfg.RSAPrivatePath)
		if err != nil {
			return nil, err
		}
		return NovoEmissorRSA(priv, cfg.KID, cfg.Issuer, cfg.Audience, cfg.AccessTTL), nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET não definida")
	}
	return NovoEmissorHMAC([]byte(cfg.JWTSecret), cfg.AccessTTL), nil
}

func (e *Emissor) TTL() time.Duration { return e.ttl }

// Gerar emite o access token com id, role e name no payload.
func (e *Emissor) Gerar(u models.User) (string, error) {
	now := e.agora()
	claims := &Claims{
		UserID: u.ID,
		Role:   u.Role,
		Name:   u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(u.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(e.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        fmt.Sprintf("%d-%d", u.ID, now.UnixNano()),
		},
	}

	if e.priv == nil {
		return jwt.NewWithClaims(e.metodo, claims).SignedString(e.segredo)
	}
	claims.Issuer = e.issuer
	claims.Audience = jwt.ClaimStrings{e.audience}
	tok := jwt.NewWithClaims(e.metodo, claims)
	tok.Header["kid"] = e.kid
	return tok.SignedString(e.priv)
}

// Validar confere assinatura, expiração e, no modo RSA, kid/iss/aud.
func (e *Emissor) Validar(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{e.metodo.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(e.agora),
	}
	if e.priv != nil {
		opts = append(opts, jwt.WithIssuer(e.issuer), jwt.WithAudience(e.audience))
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if e.priv == nil {
			return e.segredo, nil
		}
		if k, _ := t.Header["kid"].(string); k != e.kid {
			return nil, errors.New("kid desconhecido")
		}
		return &e.priv.PublicKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token inválido ou expirado: %w", err)
	}

	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("claims inválidas")
	}
	if c.UserID == 0 || !c.Role.Valid() {
		return nil, errors.New("identidade ausente no token")
	}
	return c, nil
}
