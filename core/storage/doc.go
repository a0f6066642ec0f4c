// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a small interface covering what merge reports need:
// making sure the report bucket exists, uploading report documents and listing them back.
// Both AWS S3 and self-hosted MinIO work.
//
// # Client Interface
//
// The Client interface makes storage interactions easy to mock in unit tests
// (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
//	    return err
//	}
//	keys, err := storage.ListKeys(ctx, client, cfg.Storage.Bucket, "reports/")
package storage
