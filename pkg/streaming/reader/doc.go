/*
Package reader adapts an io.Reader into a read-side stream endpoint.

Each item is a byte chunk of at most the configured chunk size, so
downstream consumers see the source as a stream of bounded pieces rather
than one unbounded blob. End of input maps to the Finished variant; any
other underlying error fails the stream and is reported by every
subsequent read.

	r := reader.New(file)
	for {
		res := r.Read(ctx)
		if res.IsFinished() {
			break
		}
		if res.IsError() {
			return res.Err
		}
		process(res.Value)
	}

ReadAll is refused by default because the source size is unknown and the
contract makes unbounded buffering an explicit opt-in; construct with
Config.AllowReadAll to permit it. Pair with the writer and pipe packages
for end-to-end byte transfers with backpressure in the middle.
*/
package reader
