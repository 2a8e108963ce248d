// Package loader drives a debug stub to load an executable image into target
// RAM and start it.
//
// A load is a linear sequence of seven steps with no branching back:
//
//  1. enable extended mode so the stub survives the session
//  2. reset the target
//  3. write the board's RAM remap register
//  4. validate the image header
//  5. write each loadable segment and read it back for comparison
//  6. set SP and PC
//  7. resume the target and wait for its stop report
//
// The first failing step aborts the load. Nothing is retried or rolled back;
// the target is left in whatever state the failed step produced.
//
// The remap write in step 3 happens before the image is validated, so a
// malformed image still leaves the board remapped. Config.ValidateFirst
// moves validation of the whole image ahead of step 1 for callers that
// would rather not touch the target at all in that case.
//
// Usage:
//
//	conn, err := rsp.Dial(ctx, "localhost:4242", logger)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	l := loader.New(stub.NewClient(conn, logger), loader.Config{Board: b}, logger)
//	res, err := l.Run(ctx, buf)
package loader
