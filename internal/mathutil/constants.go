package mathutil

// FrontView maps PMX model space onto the preview camera. PMX is
// left-handed and Y-up with the model facing -Z; the camera sits on the
// -Z side, so screen depth grows toward the viewer as Z shrinks.
var FrontView = Mat3Diag(1, 1, -1)
