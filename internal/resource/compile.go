package resource

// SPIRVCompiler is the boundary to the external GLSL-to-SPIR-V toolchain:
// source text plus a stage in, compiled words out. The engine ships no
// compiler of its own; a host that links one registers it so shader
// packaging can attach compiled words at build time.
type SPIRVCompiler interface {
	Compile(glsl string, stage Stage) ([]uint32, error)
}
