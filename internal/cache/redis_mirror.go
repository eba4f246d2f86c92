// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces mirror keys.
const DefaultRedisPrefix = "stationlink"

// RedisMirror stores the cache in Redis (or Valkey): one hash per station
// under "{prefix}:last:{station}" plus a set of known stations.
type RedisMirror struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisMirror wraps an existing client. ttl of 0 keeps entries until removed.
func NewRedisMirror(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisMirror {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisMirror{rdb: rdb, prefix: prefix, ttl: ttl}
}

// DialRedisMirror parses a redis:// URL, connects and pings.
func DialRedisMirror(ctx context.Context, url, prefix string, ttl time.Duration) (*RedisMirror, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisMirror(rdb, prefix, ttl), nil
}

// Close closes the underlying client.
func (m *RedisMirror) Close() error {
	return m.rdb.Close()
}

func (m *RedisMirror) stationKey(station string) string {
	return m.prefix + ":last:" + station
}

func (m *RedisMirror) stationsKey() string {
	return m.prefix + ":stations"
}

// Put implements Mirror.
func (m *RedisMirror) Put(ctx context.Context, key Key, value float64) error {
	hk := m.stationKey(key.Station)
	_, err := m.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, hk, key.Parameter, strconv.FormatFloat(value, 'g', -1, 64))
		p.SAdd(ctx, m.stationsKey(), key.Station)
		if m.ttl > 0 {
			p.Expire(ctx, hk, m.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror put %s/%s: %w", key.Station, key.Parameter, err)
	}
	return nil
}

// Remove implements Mirror.
func (m *RedisMirror) Remove(ctx context.Context, key Key) error {
	if err := m.rdb.HDel(ctx, m.stationKey(key.Station), key.Parameter).Err(); err != nil {
		return fmt.Errorf("mirror remove %s/%s: %w", key.Station, key.Parameter, err)
	}
	return nil
}

// RemoveStation implements Mirror.
func (m *RedisMirror) RemoveStation(ctx context.Context, station string) error {
	_, err := m.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, m.stationKey(station))
		p.SRem(ctx, m.stationsKey(), station)
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror remove station %s: %w", station, err)
	}
	return nil
}

// Clear implements Mirror.
func (m *RedisMirror) Clear(ctx context.Context) error {
	stations, err := m.rdb.SMembers(ctx, m.stationsKey()).Result()
	if err != nil {
		return fmt.Errorf("mirror list stations: %w", err)
	}
	keys := make([]string, 0, len(stations)+1)
	for _, s := range stations {
		keys = append(keys, m.stationKey(s))
	}
	keys = append(keys, m.stationsKey())
	if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("mirror clear: %w", err)
	}
	return nil
}

// Load implements Mirror. Unparseable fields are skipped.
func (m *RedisMirror) Load(ctx context.Context) (map[Key]float64, error) {
	stations, err := m.rdb.SMembers(ctx, m.stationsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("mirror list stations: %w", err)
	}

	out := make(map[Key]float64)
	for _, station := range stations {
		fields, err := m.rdb.HGetAll(ctx, m.stationKey(station)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("mirror load %s: %w", station, err)
		}
		for code, raw := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				continue
			}
			out[Key{Station: station, Parameter: code}] = v
		}
	}
	return out, nil
}
