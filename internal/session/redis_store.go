package session

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	ginsessions "github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	defaultMaxAge    = 86400 * 30
)

// RotateIDKey をセッション値に設定して保存すると、RedisStore は新しいセッション ID を発行し
// 古い ID のデータを削除します。値そのものは保存されません。
const RotateIDKey = "_rotate_id"

// Client は RedisStore が利用する Redis コマンドです。*redis.Client が満たします。
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore はセッションの値を Redis に保存し、クッキーには署名済みのセッション ID のみを保持します。
type RedisStore struct {
	client  Client
	codecs  []securecookie.Codec
	options *gsessions.Options
}

var _ ginsessions.Store = (*RedisStore)(nil)

func init() {
	// フラッシュは []interface{} として保存される
	gob.Register([]interface{}{})
}

// NewRedisStore は RedisStore を作成します。keyPairs はセッション ID の署名に使います。
func NewRedisStore(client Client, keyPairs ...[]byte) *RedisStore {
	s := &RedisStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &gsessions.Options{
			Path:   "/",
			MaxAge: defaultMaxAge,
		},
	}
	s.setCodecMaxAge(defaultMaxAge)
	return s
}

// Options はクッキー属性を設定します。
func (s *RedisStore) Options(options ginsessions.Options) {
	s.options = options.ToGorillaOptions()
	s.setCodecMaxAge(s.options.MaxAge)
}

// Get はリクエスト単位でキャッシュされたセッションを返します。
func (s *RedisStore) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New はクッキーのセッション ID から値を読み込みます。
// ID が不正または Redis に存在しない場合は空の新規セッションを返します。
func (s *RedisStore) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return session, nil
	}

	found, err := s.load(r.Context(), id, session)
	if err != nil {
		return session, err
	}
	if found {
		session.ID = id
		session.IsNew = false
	}
	return session, nil
}

// Save は値を Redis に書き込み、セッション ID をクッキーに設定します。
// MaxAge が負の場合はセッションを削除します。
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	if session.Options.MaxAge < 0 {
		if err := s.discard(r.Context(), session.ID); err != nil {
			return err
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if rotate, _ := session.Values[RotateIDKey].(bool); rotate {
		delete(session.Values, RotateIDKey)
		if err := s.discard(r.Context(), session.ID); err != nil {
			return err
		}
		session.ID = ""
	}
	if session.ID == "" {
		session.ID = newSessionID()
	}
	if err := s.store(r.Context(), session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *RedisStore) discard(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, id string, session *gsessions.Session) (bool, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&session.Values); err != nil {
		// 壊れた値は破棄して新規セッションとして扱う
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) store(ctx context.Context, session *gsessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.client.Set(ctx, redisKey(session.ID), buf.Bytes(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) setCodecMaxAge(maxAge int) {
	for _, codec := range s.codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(maxAge)
		}
	}
}

func newSessionID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}

func redisKey(id string) string {
	return sessionKeyPrefix + id
}
