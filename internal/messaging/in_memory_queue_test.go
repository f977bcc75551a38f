package messaging_test

import (
	"context"
	"encoding/json"
	"testing"

	"diabetes-backend/internal/messaging"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueuePublishReceive(t *testing.T) {
	queue := messaging.NewInMemoryQueue()

	payload := messaging.TrainTaskPayload{
		ModelId:    uuid.New(),
		DataBucket: "datasets",
		DataPrefix: "diabetes",
		RegRate:    0.01,
	}
	require.NoError(t, queue.PublishTrainTask(context.Background(), payload))

	task := <-queue.Tasks()
	assert.Equal(t, messaging.TrainingQueue, task.Type())

	var received messaging.TrainTaskPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &received))
	assert.Equal(t, payload, received)

	require.NoError(t, task.Ack())
}

func TestInMemoryQueueClose(t *testing.T) {
	queue := messaging.NewInMemoryQueue()

	tasks := queue.Tasks()
	queue.Close()

	_, ok := <-tasks
	assert.False(t, ok)
}
