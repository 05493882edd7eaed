package gctasks

import (
	"context"
	"fmt"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type Client interface {
	CreateTask(ctx context.Context, queueID string, request Request) error
	DeferCreateTaskInDuration(ctx context.Context, queueID string, request Request, duration time.Duration) error
	Close() error
}

type Request struct {
	URL    string
	Method cloudtaskspb.HttpMethod
	Header map[string]string
	Body   []byte
}

type tasksClientImpl struct {
	projectID  string
	locationID string
	logger     *logrus.Logger
	client     *cloudtasks.Client
}

// NewGCTasks returns nil when the client cannot be built; callers treat a nil
// Client as "scheduling disabled".
func NewGCTasks(logger *logrus.Logger, projectID, locationID string, credsJson []byte) Client {
	opts := []option.ClientOption{}
	if len(credsJson) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credsJson))
	}

	c, err := cloudtasks.NewClient(context.Background(), opts...)
	if err != nil {
		logger.WithField("object", "gctasks").Error(err)
		return nil
	}

	return &tasksClientImpl{
		projectID:  projectID,
		locationID: locationID,
		logger:     logger,
		client:     c,
	}
}

func (tc *tasksClientImpl) Close() error {
	return tc.client.Close()
}

func (tc *tasksClientImpl) queuePath(queueID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", tc.projectID, tc.locationID, queueID)
}

func (tc *tasksClientImpl) CreateTask(ctx context.Context, queueID string, request Request) error {
	return tc.create(ctx, queueID, request, nil)
}

func (tc *tasksClientImpl) DeferCreateTaskInDuration(ctx context.Context, queueID string, request Request, duration time.Duration) error {
	return tc.create(ctx, queueID, request, timestamppb.New(time.Now().Add(duration)))
}

func (tc *tasksClientImpl) create(ctx context.Context, queueID string, request Request, schedule *timestamppb.Timestamp) error {
	queuePath := tc.queuePath(queueID)

	task := &cloudtaskspb.Task{
		MessageType: &cloudtaskspb.Task_HttpRequest{
			HttpRequest: &cloudtaskspb.HttpRequest{
				Url:        request.URL,
				HttpMethod: request.Method,
				Headers:    request.Header,
				Body:       request.Body,
			},
		},
		ScheduleTime: schedule,
	}

	_, err := tc.client.CreateTask(ctx, &cloudtaskspb.CreateTaskRequest{
		Parent: queuePath,
		Task:   task,
	})
	if err != nil {
		tc.logger.WithContext(ctx).WithFields(logrus.Fields{
			"object":    "gctasks",
			"queueId":   queueID,
			"queuePath": queuePath,
		}).Error(err)
		return err
	}

	return nil
}
