package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/proton2025/widgetd/pkg/kv"
)

const (
	settingsObject = "luci.proton-settings"

	// DefaultKVPrefix is the key prefix of settings in a KV bucket.
	DefaultKVPrefix = "settings/"
)

// UbusRemote stores options through the luci.proton-settings ubus object.
type UbusRemote struct {
	caller Caller
}

var _ RemoteStore = (*UbusRemote)(nil)

// NewUbusRemote creates a RemoteStore over caller.
func NewUbusRemote(caller Caller) *UbusRemote {
	return &UbusRemote{caller: caller}
}

type getSettingsResponse struct {
	Settings map[string]interface{} `json:"settings"`
}

type setSettingsResponse struct {
	Success bool            `json:"success"`
	Errors  json.RawMessage `json:"errors,omitempty"`
}

func (u *UbusRemote) Fetch(ctx context.Context) (map[string]string, error) {
	var resp getSettingsResponse
	if err := u.caller.Call(ctx, settingsObject, "getSettings", map[string]interface{}{}, &resp); err != nil {
		return nil, err
	}

	if resp.Settings == nil {
		return nil, nil
	}

	out := make(map[string]string, len(resp.Settings))
	for k, v := range resp.Settings {
		out[k] = stringify(v)
	}

	return out, nil
}

func (u *UbusRemote) Save(ctx context.Context, options map[string]string) error {
	var resp setSettingsResponse

	err := u.caller.Call(ctx, settingsObject, "setSettings", map[string]interface{}{"settings": options}, &resp)
	if err != nil {
		return err
	}

	if !resp.Success && len(resp.Errors) > 0 && string(resp.Errors) != "null" {
		return fmt.Errorf("%w: %s", ErrSaveRejected, resp.Errors)
	}

	return nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "1"
		}

		return "0"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// KVRemote stores one key per option in a KV bucket.
type KVRemote struct {
	store  kv.KVStore
	prefix string
}

var _ RemoteStore = (*KVRemote)(nil)

// NewKVRemote creates a RemoteStore over store. An empty prefix uses DefaultKVPrefix.
func NewKVRemote(store kv.KVStore, prefix string) *KVRemote {
	if prefix == "" {
		prefix = DefaultKVPrefix
	}

	return &KVRemote{store: store, prefix: prefix}
}

func (k *KVRemote) Fetch(ctx context.Context) (map[string]string, error) {
	keys, err := k.store.Keys(ctx, k.prefix)
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(keys))

	for _, key := range keys {
		value, found, err := k.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		if found {
			out[strings.TrimPrefix(key, k.prefix)] = string(value)
		}
	}

	return out, nil
}

func (k *KVRemote) Save(ctx context.Context, options map[string]string) error {
	for name, value := range options {
		if err := k.store.Put(ctx, k.prefix+name, []byte(value), time.Duration(0)); err != nil {
			return err
		}
	}

	return nil
}
