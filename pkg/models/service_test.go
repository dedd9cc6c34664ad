/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidServiceName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "simple", input: "dnsmasq", want: true},
		{name: "dash and underscore", input: "sing-box_2", want: true},
		{name: "max length", input: strings.Repeat("a", 64), want: true},
		{name: "too long", input: strings.Repeat("a", 65), want: false},
		{name: "empty", input: "", want: false},
		{name: "slash", input: "../etc/passwd", want: false},
		{name: "dot", input: "nginx.conf", want: false},
		{name: "space", input: "my service", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidServiceName(tt.input))
		})
	}
}

func TestValidateServiceName(t *testing.T) {
	require.NoError(t, ValidateServiceName("odhcpd"))
	require.ErrorIs(t, ValidateServiceName(strings.Repeat("x", 70)), ErrInvalidServiceName)
	require.ErrorIs(t, ValidateServiceName("a/b"), ErrInvalidServiceName)
}

func TestNormalizeServiceList(t *testing.T) {
	got := NormalizeServiceList([]string{"dnsmasq", "bad name", "dropbear", "dnsmasq", "a/b", strings.Repeat("z", 65)})
	assert.Equal(t, []string{"dnsmasq", "dropbear"}, got)

	assert.Empty(t, NormalizeServiceList(nil))
}

func TestDurationJSON(t *testing.T) {
	var cfg struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"a":"250ms","b":1000000000}`), &cfg))
	assert.Equal(t, 250*time.Millisecond, time.Duration(cfg.A))
	assert.Equal(t, time.Second, time.Duration(cfg.B))

	err := json.Unmarshal([]byte(`{"a":true}`), &cfg)
	require.ErrorIs(t, err, ErrInvalidDuration)

	data, err := json.Marshal(Duration(3 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"3s"`, string(data))
}
