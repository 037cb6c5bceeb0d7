package main

import (
	"context"
	"errors"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// sender publishes one message and waits for the broker's ack.
type sender interface {
	Send(ctx context.Context, msg *gcppubsub.Message) error
}

type topicSource interface {
	Topic(name string) sender
}

type publisherFactory interface {
	Publisher(name string) *gcppubsub.Publisher
}

// topicCache keeps one publisher per topic. Each Pub/Sub publisher owns
// batching goroutines, so it is created once and stopped on Close.
type topicCache struct {
	factory publisherFactory

	mu   sync.Mutex
	pubs map[string]*gcppubsub.Publisher
}

func newTopicCache(factory publisherFactory) *topicCache {
	return &topicCache{factory: factory, pubs: make(map[string]*gcppubsub.Publisher)}
}

func (c *topicCache) Topic(name string) sender {
	c.mu.Lock()
	defer c.mu.Unlock()
	pub, ok := c.pubs[name]
	if !ok {
		pub = c.factory.Publisher(name)
		if pub == nil {
			return nil
		}
		c.pubs[name] = pub
	}
	return gcpSender{pub: pub}
}

// Close flushes pending messages and stops every cached publisher.
func (c *topicCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, pub := range c.pubs {
		pub.Stop()
		delete(c.pubs, name)
	}
}

type gcpSender struct {
	pub *gcppubsub.Publisher
}

func (s gcpSender) Send(ctx context.Context, msg *gcppubsub.Message) error {
	result := s.pub.Publish(ctx, msg)
	if result == nil {
		return errors.New("publish returned no result")
	}
	_, err := result.Get(ctx)
	return err
}
