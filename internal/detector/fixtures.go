package detector

// Reference right-hand poses in image coordinates, indexed like Points.

var fistPoints = [NumLandmarks]Point3D{
	{0.50, 0.80, 0.00},
	// thumb laid across the knuckles
	{0.55, 0.75, -0.01}, {0.57, 0.70, -0.03}, {0.53, 0.66, -0.06}, {0.48, 0.65, -0.07},
	// fingers curled with tips tucked toward the palm
	{0.55, 0.66, -0.02}, {0.55, 0.62, -0.05}, {0.54, 0.66, -0.06}, {0.53, 0.69, -0.04},
	{0.50, 0.65, -0.02}, {0.50, 0.61, -0.05}, {0.49, 0.65, -0.06}, {0.49, 0.68, -0.04},
	{0.46, 0.66, -0.02}, {0.46, 0.62, -0.05}, {0.45, 0.66, -0.06}, {0.45, 0.69, -0.04},
	{0.42, 0.68, -0.02}, {0.42, 0.65, -0.04}, {0.41, 0.68, -0.05}, {0.41, 0.71, -0.03},
}

var openPalmPoints = [NumLandmarks]Point3D{
	{0.50, 0.80, 0.00},
	{0.55, 0.75, 0.02}, {0.62, 0.70, 0.03}, {0.68, 0.65, 0.03}, {0.73, 0.60, 0.03},
	{0.55, 0.68, 0}, {0.57, 0.55, 0}, {0.58, 0.45, 0}, {0.58, 0.35, 0},
	{0.50, 0.66, 0}, {0.50, 0.52, 0}, {0.50, 0.40, 0}, {0.50, 0.28, 0},
	{0.45, 0.68, 0}, {0.43, 0.55, 0}, {0.42, 0.45, 0}, {0.42, 0.35, 0},
	{0.40, 0.70, 0}, {0.37, 0.60, 0}, {0.35, 0.50, 0}, {0.34, 0.42, 0},
}

// FistLandmarks is a closed fist with the thumb across the front of the
// fingers, the shape of "さ".
func FistLandmarks() HandLandmarks {
	return HandLandmarks{Points: fistPoints, Handedness: "Right", Score: 0.95}
}

// OpenPalmLandmarks is a flat hand with the fingers together, palm facing
// the camera.
func OpenPalmLandmarks() HandLandmarks {
	return HandLandmarks{Points: openPalmPoints, Handedness: "Right", Score: 0.95}
}
