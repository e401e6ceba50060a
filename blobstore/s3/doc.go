// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", "clustering/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Object LastModified timestamps drive the freshness comparison between the
// reduced-dataset artifact and cached clustering records, so the bucket
// should not be fronted by anything that rewrites object metadata.
package s3
