package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/kamal-hamza/ccw/internal/adapters/blob"
	"github.com/kamal-hamza/ccw/internal/adapters/container"
	"github.com/kamal-hamza/ccw/internal/adapters/fetch"
	"github.com/kamal-hamza/ccw/internal/adapters/queue"
	"github.com/kamal-hamza/ccw/internal/adapters/repository"
	"github.com/kamal-hamza/ccw/internal/core/services"
	"github.com/kamal-hamza/ccw/pkg/config"
)

// wireBackend builds the adapters for the configured backend and the services on top of them
func wireBackend(ctx context.Context) error {
	var err error
	switch appConfig.Backend {
	case config.BackendAWS:
		err = wireAWS(ctx)
	default:
		err = wireLocal()
	}
	if err != nil {
		return err
	}

	inputFetcher = fetch.NewHTTPFetcher(0)
	dockerRuntime = container.NewDockerRuntime(appConfig.Runtime.DockerBinary, appConfig.Runtime.Shell, logger)
	contextResolver = container.NewDirectoryResolver(appConfig.Runtime.ContextsDir)

	catalogService = services.NewCatalogService(entryRepo, blobStore, logger)
	notificationService = services.NewNotificationService(notificationRepo, logger)
	executionService = services.NewExecutionService(
		catalogService,
		notificationService,
		inputFetcher,
		dockerRuntime,
		contextResolver,
		services.ExecutionConfig{
			WorkspaceRoot: appConfig.Workspace.Root,
			MountPath:     appConfig.Runtime.MountPath,
			DefaultUser:   appConfig.Notifications.DefaultUser,
		},
		logger,
	)
	dispatchService = services.NewDispatchService(executionService, logger)

	logger.Debug("backend ready", "backend", appConfig.Backend)
	return nil
}

// wireLocal uses SQLite for metadata, a blob directory and a spool directory queue
func wireLocal() error {
	db, err := repository.OpenSQLite(appConfig.Catalog.DatabasePath)
	if err != nil {
		return err
	}
	appDB = db

	entryRepo = repository.NewSQLiteEntryRepository(db)
	notificationRepo = repository.NewSQLiteNotificationRepository(db)

	store, err := blob.NewFileStore(appConfig.Catalog.BlobDir, appConfig.Catalog.BlobBaseURL)
	if err != nil {
		return err
	}
	blobStore = store

	spool, err := queue.NewSpoolQueue(appConfig.Queue.SpoolDir, logger)
	if err != nil {
		return err
	}
	jobQueue = spool

	return nil
}

// wireAWS uses SQS, DynamoDB and S3 from the default credential chain
func wireAWS(ctx context.Context) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(appConfig.AWS.Region))
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	endpoint := appConfig.AWS.Endpoint

	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	dynamoClient := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	jobQueue = queue.NewSQSQueue(sqsClient, appConfig.Queue.URL, appConfig.Visibility())
	entryRepo = repository.NewDynamoEntryRepository(dynamoClient, appConfig.Catalog.EntriesTable, appConfig.Catalog.ParentIndex)
	notificationRepo = repository.NewDynamoNotificationRepository(dynamoClient, appConfig.Notifications.Table, appConfig.Notifications.UserIndex)
	blobStore = blob.NewS3Store(s3Client, appConfig.Catalog.Bucket, appConfig.AWS.Region, appConfig.Catalog.DownloadURLTemplate)

	return nil
}
