package store

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// RedisStatus stores merge statuses in Redis so a restarted (or horizontally
// scaled) web tier still reports the last outcome per session.
type RedisStatus struct {
    client *redis.Client
    keyNS  string
    ttl    time.Duration
}

// NewRedisStatus connects and pings Redis. Entries expire after ttl.
func NewRedisStatus(redisURL string, ttl time.Duration) (*RedisStatus, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
    if ttl <= 0 { ttl = 12 * time.Hour }
    return &RedisStatus{client: c, keyNS: "merge", ttl: ttl}, nil
}

func (s *RedisStatus) key(sessionID string) string {
    return fmt.Sprintf("%s:%s:status", s.keyNS, sessionID)
}

func (s *RedisStatus) Set(ctx context.Context, sessionID string, st Status) error {
    m := map[string]interface{}{
        "state":   st.State,
        "message": st.Message,
    }
    if st.Start != nil { m["start"] = st.Start.Format(time.RFC3339Nano) }
    if st.End != nil { m["end"] = st.End.Format(time.RFC3339Nano) }
    if st.Metadata != nil {
        b, _ := json.Marshal(st.Metadata)
        m["metadata"] = string(b)
    }
    k := s.key(sessionID)
    // full replace: stale fields from the previous status must not survive
    if err := s.client.Del(ctx, k).Err(); err != nil {
        return err
    }
    if err := s.client.HSet(ctx, k, m).Err(); err != nil {
        return err
    }
    return s.client.Expire(ctx, k, s.ttl).Err()
}

func (s *RedisStatus) Get(ctx context.Context, sessionID string) (Status, bool, error) {
    res, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
    if err != nil { return Status{}, false, err }
    if len(res) == 0 { return Status{}, false, nil }
    st := Status{State: res["state"], Message: res["message"]}
    if v := res["start"]; v != "" {
        if t, err := time.Parse(time.RFC3339Nano, v); err == nil { st.Start = &t }
    }
    if v := res["end"]; v != "" {
        if t, err := time.Parse(time.RFC3339Nano, v); err == nil { st.End = &t }
    }
    if v := res["metadata"]; v != "" {
        _ = json.Unmarshal([]byte(v), &st.Metadata)
    }
    return st, true, nil
}

// Ping exposes connectivity for health checks.
func (s *RedisStatus) Ping(ctx context.Context) error {
    return s.client.Ping(ctx).Err()
}

func (s *RedisStatus) Close() error { return s.client.Close() }
