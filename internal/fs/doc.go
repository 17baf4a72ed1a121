// Package fs abstracts the file operations used by the local blob store so
// tests can inject I/O failures.
//
// Production code uses [Default], which delegates to the os package.
// Tests wrap it with [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp-", fs.Fault{FailOnSync: true})
//
// Operations take no context.Context. Local file calls are not
// interruptible at the syscall level; remote stores carry their own
// context through the blobstore.Store interface.
package fs
