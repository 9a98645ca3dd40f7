package gaslib

import "encoding/xml"

// Element names follow the GasLib CompressorStations schema
// (http://gaslib.zib.de/CompressorStations). Scalars are child elements
// carrying value and unit attributes; they are collected through the ",any"
// fields and resolved by name.

type xmlFile struct {
	XMLName  xml.Name     `xml:"compressorStations"`
	Stations []xmlStation `xml:"compressorStation"`
}

type xmlStation struct {
	ID             string             `xml:"id,attr"`
	Turbos         []xmlTurbo         `xml:"compressors>turboCompressor"`
	Pistons        []xmlPiston        `xml:"compressors>pistonCompressor"`
	Turbines       []xmlTurbine       `xml:"drives>gasTurbine"`
	Motors         []xmlMotor         `xml:"drives>gasDrivenMotor"`
	Configurations []xmlConfiguration `xml:"configurations>configuration"`
}

type xmlParam struct {
	XMLName xml.Name
	Value   string `xml:"value,attr"`
	Unit    string `xml:"unit,attr"`
}

type xmlTurbo struct {
	ID           string           `xml:"id,attr"`
	Drive        string           `xml:"drive,attr"`
	Surge        []xmlMeasurement `xml:"surgelineMeasurements>measurement"`
	Efficiencies []xmlIsoCurve    `xml:"characteristicDiagramMeasurements>adiabaticEfficiency"`
	Params       []xmlParam       `xml:",any"`
}

type xmlIsoCurve struct {
	Value        string           `xml:"value,attr"`
	Measurements []xmlMeasurement `xml:"measurement"`
}

type xmlPiston struct {
	ID     string     `xml:"id,attr"`
	Drive  string     `xml:"drive,attr"`
	Params []xmlParam `xml:",any"`
}

type xmlMeasurement struct {
	Params []xmlParam `xml:",any"`
}

type xmlTurbine struct {
	ID     string     `xml:"id,attr"`
	Params []xmlParam `xml:",any"`
}

type xmlMotor struct {
	ID             string           `xml:"id,attr"`
	SpecificEnergy []xmlMeasurement `xml:"specificEnergyConsumptionMeasurements>measurement"`
	MaximalPower   []xmlMeasurement `xml:"maximalPowerMeasurements>measurement"`
	Params         []xmlParam       `xml:",any"`
}

type xmlConfiguration struct {
	ID               string     `xml:"confId,attr"`
	NrOfSerialStages int        `xml:"nrOfSerialStages,attr"`
	Stages           []xmlStage `xml:"stage"`
}

type xmlStage struct {
	StageNr           int       `xml:"stageNr,attr"`
	NrOfParallelUnits int       `xml:"nrOfParallelUnits,attr"`
	Units             []xmlUnit `xml:"compressor"`
}

type xmlUnit struct {
	ID           string  `xml:"id,attr"`
	NominalSpeed float64 `xml:"nominalSpeed,attr"`
}
