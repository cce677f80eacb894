package mqtt

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Discover lists devices with a presence under the topic prefix of the
// broker URL, waiting up to timeout for retained messages.
func Discover(ctx context.Context, u *url.URL, timeout time.Duration) ([]Meta, error) {
	opts, prefix, err := ClientOptionsFromURL(u)
	if err != nil {
		return nil, err
	}
	q := NewQueue(opts, prefix)
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()

	metaCh := make(chan Meta, 16)
	q.Sub("+/"+TopicMeta, func(topic string, payload []byte) {
		if meta, ok := ParseMeta(topic, payload); ok {
			select {
			case metaCh <- meta:
			case <-time.After(time.Second):
			}
		}
	})

	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	found := make(map[string]Meta)
	expire := time.After(timeout)
	for {
		select {
		case meta := <-metaCh:
			found[meta.ID] = meta
		case <-expire:
			return sortedMeta(found), nil
		case <-ctx.Done():
			return sortedMeta(found), ctx.Err()
		}
	}
}

// ParseMeta decodes a presence message on topic <device>/meta.
// An empty payload is a cleared presence.
func ParseMeta(topic string, payload []byte) (Meta, bool) {
	items := strings.Split(topic, "/")
	if len(items) != 2 || items[1] != TopicMeta || len(payload) == 0 {
		return Meta{}, false
	}
	var meta Meta
	if err := json.Unmarshal(payload, &meta); err != nil {
		return Meta{}, false
	}
	meta.ID = items[0]
	return meta, true
}

func sortedMeta(found map[string]Meta) []Meta {
	res := make([]Meta, 0, len(found))
	for _, meta := range found {
		res = append(res, meta)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}
