package asche

import lin "github.com/xlab/linmath"

// VulkanProjectionMat rewrites a GL-style projection matrix for Vulkan's
// clip space: Y is flipped (clip-space top-left is (-1,-1)) and depth is
// remapped from [-1,1] to [0,1]. linmath builds GL-style projections, so
// every projection handed to a uniform block passes through here first.
func VulkanProjectionMat(m *lin.Mat4x4, proj *lin.Mat4x4) {
	m.Fill(1.0)
	m.ScaleAniso(m, 1.0, -1.0, 1.0)
	m.ScaleAniso(m, 1.0, 1.0, 0.5)
	m.Translate(0.0, 0.0, 1.0)
	m.Mult(m, proj)
}

// FlattenMat4 copies a linmath matrix into the 16-float column-major layout
// a std140 mat4 uniform expects.
func FlattenMat4(m *lin.Mat4x4, out *[16]float32) {
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col*4+row] = m[col][row]
		}
	}
}
