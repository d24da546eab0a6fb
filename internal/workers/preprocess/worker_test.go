package preprocess

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/models"
	"github.com/ternarybob/transfero/internal/services/events"
)

func TestWorker_PublishesNotificationForEnqueuedJob(t *testing.T) {
	logger := common.GetLogger()
	eventService := events.NewService(logger)
	defer eventService.Close()

	notifications := make(chan *models.PreprocessingNotification, 1)
	require.NoError(t, eventService.Subscribe(interfaces.EventPreprocessingResult, func(ctx context.Context, event interfaces.Event) error {
		if n, ok := event.Payload.(*models.PreprocessingNotification); ok {
			select {
			case notifications <- n:
			default:
			}
		}
		return nil
	}))

	worker := NewWorker(eventService, 2, logger)
	require.NoError(t, worker.Start(context.Background()))

	job := &models.SubJob{
		ID:        "req_1:ko",
		RequestID: "req_1",
		Language:  "ko",
		Text:      "ㅎㅇ   everyone",
		Options:   models.DefaultPreprocessOptions(),
	}
	require.NoError(t, eventService.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventSubJobEnqueued,
		Payload: job,
	}))

	select {
	case n := <-notifications:
		assert.Equal(t, "req_1:ko", n.SubJobID)
		assert.Equal(t, models.NotificationCompleted, n.Status)
		require.NotNil(t, n.Result)
		assert.False(t, n.Result.Filtered)
		assert.Equal(t, "하이 everyone", n.Result.PreprocessedText)
		assert.GreaterOrEqual(t, n.Result.ElapsedMs, 0.0)
	case <-time.After(2 * time.Second):
		t.Fatal("no preprocessing notification published")
	}
}

func TestWorker_FilteredJobStillNotifies(t *testing.T) {
	logger := common.GetLogger()
	eventService := events.NewService(logger)
	defer eventService.Close()

	notifications := make(chan *models.PreprocessingNotification, 1)
	require.NoError(t, eventService.Subscribe(interfaces.EventPreprocessingResult, func(ctx context.Context, event interfaces.Event) error {
		if n, ok := event.Payload.(*models.PreprocessingNotification); ok {
			select {
			case notifications <- n:
			default:
			}
		}
		return nil
	}))

	worker := NewWorker(eventService, 1, logger)
	require.NoError(t, worker.Start(context.Background()))

	require.NoError(t, eventService.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventSubJobEnqueued,
		Payload: &models.SubJob{
			ID:      "req_2:ko",
			Text:    "damn",
			Options: models.PreprocessOptions{FilterProfanity: true},
		},
	}))

	select {
	case n := <-notifications:
		assert.Equal(t, models.NotificationCompleted, n.Status)
		require.NotNil(t, n.Result)
		assert.True(t, n.Result.Filtered)
		assert.Equal(t, "profanity", n.Result.FilterReason)
	case <-time.After(2 * time.Second):
		t.Fatal("no preprocessing notification published")
	}
}
