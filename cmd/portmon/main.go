package main

import (
	"flag"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/robotalks/debugport/pkg/link/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/debugport/"
)

func init() {
	if val := os.Getenv("DEBUGPORT_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL with topic prefix.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	u, err := url.Parse(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	opts, prefix, err := mqtt.ClientOptionsFromURL(u)
	if err != nil {
		log.Fatalln(err)
	}
	q := mqtt.NewQueue(opts, prefix)
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.TopicMeta) {
			if meta, ok := mqtt.ParseMeta(topic, payload); ok {
				log.Printf("%s: online host=%s started=%s", meta.ID, meta.Host, meta.Started)
			} else {
				log.Printf("%s: offline", strings.TrimSuffix(topic, "/"+mqtt.TopicMeta))
			}
			return
		}
		log.Printf("%s: %q", topic, payload)
	}))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
