package pipeline

const (
	// minFIFOFrames is the smallest engine-side FIFO capacity.
	minFIFOFrames = 256

	// fifoBlocks sizes the FIFOs in processor blocks, room for the block
	// converted back at up to this many times the processor rate.
	fifoBlocks = 8

	// maxBlockFrames bounds BlockSize.
	maxBlockFrames = 4096
)
