// Command gstore manages buckets and files in the configured object storage
// backend.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/MonumentoSoftware/monugstore/internal/catalog"
	"github.com/MonumentoSoftware/monugstore/internal/config"
	"github.com/MonumentoSoftware/monugstore/internal/files"
	"github.com/MonumentoSoftware/monugstore/internal/storage"
)

func newStore(c *cli.Context) (*config.Config, storage.ObjectStore, error) {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewObjectStore(c.Context, cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, store, nil
}

func closeStore(store storage.ObjectStore) {
	if closer, ok := store.(io.Closer); ok {
		closer.Close() //nolint:errcheck
	}
}

func main() {
	app := &cli.App{
		Name:  "gstore",
		Usage: "manage buckets and files in cloud object storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to a .env file to load",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "create-bucket",
				Usage:     "create a bucket (no-op if it already exists)",
				ArgsUsage: "<bucket>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "location", Usage: "bucket location (GCS only)"},
					&cli.BoolFlag{Name: "public", Usage: "make the bucket publicly readable (GCS only)"},
				},
				Action: createBucket,
			},
			{
				Name:      "ls",
				Usage:     "list files in a bucket",
				ArgsUsage: "<bucket>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "only list keys with this prefix"},
				},
				Action: listFiles,
			},
			{
				Name:      "upload",
				Usage:     "upload a local file",
				ArgsUsage: "<bucket> <file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "destination object name (defaults to the file name)"},
					&cli.StringFlag{Name: "prefix", Usage: "destination key prefix"},
					&cli.BoolFlag{Name: "public", Usage: "make the object publicly readable"},
				},
				Action: uploadFile,
			},
			{
				Name:      "download",
				Usage:     "download an object to a local file",
				ArgsUsage: "<bucket> <key> <dest>",
				Action:    downloadFile,
			},
			{
				Name:      "rm",
				Usage:     "delete an object",
				ArgsUsage: "<bucket> <key>",
				Action:    deleteFile,
			},
			{
				Name:      "empty",
				Usage:     "delete all objects in a bucket, optionally under a prefix",
				ArgsUsage: "<bucket>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "only delete keys with this prefix"},
				},
				Action: emptyBucket,
			},
			{
				Name:      "delete-bucket",
				Usage:     "delete an empty bucket",
				ArgsUsage: "<bucket>",
				Action:    deleteBucket,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func createBucket(c *cli.Context) error {
	bucket := c.Args().Get(0)
	if bucket == "" {
		return fmt.Errorf("bucket name is required")
	}

	_, store, err := newStore(c)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if manager, ok := store.(*storage.GCSManager); ok {
		return manager.CreateBucketWithOptions(c.Context, bucket, storage.CreateBucketOptions{
			Location: c.String("location"),
			Public:   c.Bool("public"),
		})
	}

	return store.CreateBucket(c.Context, bucket)
}

func listFiles(c *cli.Context) error {
	bucket := c.Args().Get(0)
	if bucket == "" {
		return fmt.Errorf("bucket name is required")
	}

	_, store, err := newStore(c)
	if err != nil {
		return err
	}
	defer closeStore(store)

	for obj, err := range store.IterObjects(c.Context, bucket, c.String("prefix")) {
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", files.FormatSize(obj.Size), obj.Name)
	}

	return nil
}

func uploadFile(c *cli.Context) error {
	bucket, path := c.Args().Get(0), c.Args().Get(1)
	if bucket == "" || path == "" {
		return fmt.Errorf("bucket name and file path are required")
	}

	cfg, store, err := newStore(c)
	if err != nil {
		return err
	}
	defer closeStore(store)

	url, err := store.UploadFile(c.Context, bucket, path, storage.UploadOptions{
		Name:   c.String("name"),
		Prefix: c.String("prefix"),
		Public: c.Bool("public"),
	})
	if err != nil {
		return err
	}

	fmt.Println(url)

	if cfg.DatabaseURL != "" {
		db, err := catalog.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		size, err := files.FileSize(path)
		if err != nil {
			return err
		}

		name := c.String("name")
		if name == "" {
			name = filepath.Base(path)
		}
		key := storage.ObjectKey(c.String("prefix"), name)
		if _, err := catalog.RecordUpload(c.Context, db, bucket, key, size, url); err != nil {
			return err
		}
	}

	return nil
}

func downloadFile(c *cli.Context) error {
	bucket, key, dest := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)
	if bucket == "" || key == "" || dest == "" {
		return fmt.Errorf("bucket, key and destination are required")
	}

	_, store, err := newStore(c)
	if err != nil {
		return err
	}
	defer closeStore(store)

	return store.DownloadFile(c.Context, bucket, key, dest)
}

func deleteFile(c *cli.Context) error {
	bucket, key := c.Args().Get(0), c.Args().Get(1)
	if bucket == "" || key == "" {
		return fmt.Errorf("bucket name and key are required")
	}

	_, store, err := newStore(c)
	if err != nil {
		return err
	}
	defer closeStore(store)

	return store.DeleteFile(c.Context, bucket, key)
}

func emptyBucket(c *cli.Context) error {
	bucket := c.Args().Get(0)
	if bucket == "" {
		return fmt.Errorf("bucket name is required")
	}

	_, store, err := newStore(c)
	if err != nil {
		return err
	}
	defer closeStore(store)

	return store.DeleteAllFiles(c.Context, bucket, c.String("prefix"))
}

func deleteBucket(c *cli.Context) error {
	bucket := c.Args().Get(0)
	if bucket == "" {
		return fmt.Errorf("bucket name is required")
	}

	_, store, err := newStore(c)
	if err != nil {
		return err
	}
	defer closeStore(store)

	return store.DeleteBucket(c.Context, bucket)
}
