package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/partsdealer-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	require.Equal(t, "projects/p1/topics/orders", topicResourceName("p1", "orders"))
	require.Equal(t, "projects/other/topics/x", topicResourceName("p1", "projects/other/topics/x"))
	require.Empty(t, topicResourceName("p1", " "))
	require.Empty(t, topicResourceName("", "orders"))
}

func TestTopicNamesDeduplicates(t *testing.T) {
	names := topicNames(config.PubSubConfig{OrdersTopic: "events", PaymentsTopic: "events", DealersTopic: "dealers"})
	require.Equal(t, []string{"events", "dealers"}, names)
	require.Empty(t, topicNames(config.PubSubConfig{}))
}

func TestClientOptionsPrefersInlineCredentials(t *testing.T) {
	require.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/tmp/x"}), 1)
	require.Len(t, clientOptions(config.GCPConfig{CredentialsFile: "/tmp/x"}), 1)
	require.Empty(t, clientOptions(config.GCPConfig{}))
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("orders"))
	require.NoError(t, c.Close())
	require.Error(t, c.Ping(context.Background()))
}
