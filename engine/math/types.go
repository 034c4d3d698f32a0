package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion Vec4

/**
 * @brief a 4x4 matrix, typically used to represent object transformations.
 * Elements are stored column by column, translation lives in Data[12..14].
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief Represents a single skinned vertex in 3D space. The layout matches
 * the vertex input bindings of the mesh pipeline.
 */
type Vertex3D struct {
	/** @brief The position of the vertex */
	Position Vec3
	/** @brief The normal of the vertex. */
	Normal Vec3
	/** @brief The first texture coordinate set. */
	UV0 Vec2
	/** @brief The second texture coordinate set. */
	UV1 Vec2
	/** @brief Up to four joint indices influencing the vertex. */
	Joint0 Vec4
	/** @brief The weight of each joint in Joint0. */
	Weight0 Vec4
}

/**
 * @brief Represents the local transform of a node: translation, rotation and scale.
 */
type Transform struct {
	/** @brief The position relative to the parent. */
	Position Vec3
	/** @brief The rotation relative to the parent. */
	Rotation Quaternion
	/** @brief The scale relative to the parent. */
	Scale Vec3
}
