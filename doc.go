// Package gifski turns an ordered sequence of full-color frames into a
// single animated GIF, choosing a fresh 256-color palette per frame so the
// cumulative visual quality stays high despite the format's per-frame color
// ceiling.
//
// Frames are submitted to a Collector, in any order, by index. Encoding
// itself runs on two overlapped stages: a quantizer goroutine that computes
// a per-pixel importance map from each frame's neighbors, quantizes against
// a running reconstruction of the previously displayed frame ("screen"),
// and a Writer that streams the quantized frames out to a GIF encoder in
// strict index order.
//
//	collector, writer := gifski.New(gifski.Settings{Quality: 90})
//	go func() {
//		defer collector.Close()
//		for i, frame := range frames {
//			collector.AddFrameRGBA(i, frame.Image, frame.DelayCentis)
//		}
//	}()
//	err := writer.Write(outFile, progress.Nop())
package gifski
