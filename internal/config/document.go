package config

// document mirrors the XML layout. Pointer fields tell absent elements from zero values.
//
//	<config>
//	  <star><name/><direction/><hours/><minutes/><seconds/></star>
//	  <camera><id/><minV/><maxV/></camera>
//	  <file><name/><location/></file>
//	  <tracking><tolerance/><delay/></tracking>
//	</config>
type document struct {
	Star     *xmlStar     `xml:"star"`
	Camera   *xmlCamera   `xml:"camera"`
	File     *xmlFile     `xml:"file"`
	Tracking *xmlTracking `xml:"tracking"`
}

type xmlStar struct {
	Name      *string `xml:"name"`
	Direction *string `xml:"direction"`
	Hours     *int    `xml:"hours"`
	Minutes   *int    `xml:"minutes"`
	Seconds   *int    `xml:"seconds"`
}

type xmlCamera struct {
	ID   *int `xml:"id"`
	MinV *int `xml:"minV"`
	MaxV *int `xml:"maxV"`
}

type xmlFile struct {
	Name     *string `xml:"name"`
	Location *string `xml:"location"`
}

type xmlTracking struct {
	Tolerance *float64 `xml:"tolerance"`
	// Delay between frames, milliseconds
	Delay *int `xml:"delay"`
}
